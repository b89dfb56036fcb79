// Package docs docbridge API
//
// @title  docbridge API
// @version 0.1.0
// @description Document store operations over MongoDB. Bodies are relaxed Extended JSON.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "docbridge/cmd/server/handlers/collections"
	_ "docbridge/cmd/server/handlers/httperr"
)
