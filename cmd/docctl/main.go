// Command docctl runs docstore operations from the shell and checks a running gateway.
//
// Documents, filters and updates are given as relaxed Extended JSON:
//
//	docctl insert orders '{"status": "open", "total": 12.5}'
//	docctl find orders '{"status": "open"}' --sort '{"total": -1}' --limit 10
//	docctl update orders '{"status": "open"}' '{"$set": {"status": "held"}}' --many
//	docctl seed orders --count 2000
//
// Connection settings default to MONGO_URI and MONGO_DB_NAME.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongo "docbridge/internal/clients/mongo"
	"docbridge/internal/config"
	"docbridge/internal/docstore"
	"docbridge/internal/logger"

	"github.com/alecthomas/kong"
)

// cliFlags describes every docctl command.
type cliFlags struct {
	URI      string        `name:"uri" help:"MongoDB connection string. Defaults to MONGO_URI."`
	DB       string        `name:"db" help:"Database name. Defaults to MONGO_DB_NAME."`
	Timeout  time.Duration `default:"30s" help:"Deadline for the whole command."`
	LogLevel string        `default:"warn" enum:"debug,info,warn,error" help:"Log level."`

	Ping struct{} `cmd:"" help:"Connect to MongoDB and ping the primary."`

	Health struct {
		URL string `default:"http://localhost:8080" help:"Gateway base URL."`
	} `cmd:"" help:"Check the gateway /healthz endpoint. The exit code names the failure."`

	Insert struct {
		Key string `arg:"" help:"Collection name."`
		Doc string `arg:"" help:"Document."`
		ID  string `help:"Hex ObjectID assigned to the document."`
	} `cmd:"" help:"Insert one document."`

	InsertMany struct {
		Key  string   `arg:"" help:"Collection name."`
		Docs string   `arg:"" help:"Array of documents."`
		IDs  []string `name:"id" help:"Hex ObjectIDs assigned by position. Repeat for each document."`
	} `cmd:"" help:"Insert several documents in one batch."`

	Find struct {
		Key        string `arg:"" help:"Collection name."`
		Filter     string `arg:"" help:"Filter. Use '{}' to match everything."`
		One        bool   `help:"Print at most one document."`
		Sort       string `help:"Sort document, for example '{\"total\": -1}'."`
		Limit      int64  `help:"Maximum number of documents. 0 means no limit."`
		Skip       int64  `help:"Number of documents to skip."`
		Projection string `help:"Projection."`
	} `cmd:"" help:"Find documents and print one Extended JSON document per line."`

	Update struct {
		Key    string `arg:"" help:"Collection name."`
		Filter string `arg:"" help:"Filter."`
		Update string `arg:"" help:"Update expression, for example '{\"$set\": {\"a\": 1}}'."`
		Many   bool   `help:"Update every match instead of the first."`
		Upsert bool   `help:"Insert a document when nothing matches."`
	} `cmd:"" help:"Update documents."`

	Delete struct {
		Key    string `arg:"" help:"Collection name."`
		Filter string `arg:"" help:"Filter. Use '{}' to match everything."`
		Many   bool   `help:"Delete every match instead of the first."`
	} `cmd:"" help:"Delete documents."`

	Seed struct {
		Key     string `arg:"" help:"Collection name."`
		Count   int    `default:"500" help:"Number of documents to insert."`
		Batch   int    `default:"100" help:"Documents per insert-many call."`
		Workers int    `default:"4" help:"Batches in flight at once."`
		Seed    int64  `help:"Random seed. 0 seeds from the clock."`
	} `cmd:"" help:"Insert fake order documents."`
}

var cli cliFlags

func newParser(c *cliFlags, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("docctl"),
		kong.Description("Run document store operations against MongoDB."),
		kong.DefaultEnvars("DOCCTL"),
		kong.UsageOnError(),
	}, opts...)
	return kong.New(c, opts...)
}

func main() {
	parser, err := newParser(&cli)
	if err != nil {
		log.Fatal(err)
	}
	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg.LogLevel = cli.LogLevel
	cfg.LogFormat = "text"

	// stdout carries command output
	logg := logger.New(cfg, os.Stderr)
	slog.SetDefault(logg)

	cmd := kongCtx.Command()
	logg.Debug("running", "command", cmd)

	if cmd == "health" {
		err = checkHealth(ctx, cli.Health.URL, os.Stdout)
		var he *healthError
		if errors.As(err, &he) {
			logg.Error("unhealthy", "url", cli.Health.URL, "err", he.err)
			os.Exit(he.code)
		}
		return
	}

	os.Exit(execute(ctx, cfg, cmd))
}

// execute connects, runs cmd and returns the process exit code.
func execute(ctx context.Context, cfg config.Config, cmd string) int {
	logg := logger.L()

	uri, db := cli.URI, cli.DB
	if uri == "" {
		uri = cfg.MongoURI
	}
	if db == "" {
		db = cfg.MongoDBName
	}

	h, err := docstore.Connect(ctx, uri, db, mongo.DefaultClientOptions(cfg.MongoAppName, cfg.ConnectTimeout()))
	if err != nil {
		logg.Error("connect failed", "db", db, "err", err)
		return 1
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.Client().Disconnect(dctx); err != nil {
			logg.Warn("disconnect failed", "err", err)
		}
	}()

	if err := run(ctx, &cli, cmd, h, os.Stdout); err != nil {
		logg.Error(fmt.Sprintf("%s failed", cmd), "err", err)
		return 1
	}
	return 0
}
