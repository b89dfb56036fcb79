//go:build e2e

package test

import (
	"fmt"
	"net/http"
	"testing"
)

const maxPerMinute = 3 // small quota so we hit 429 quickly

func TestRateLimitE2E(t *testing.T) {
	env := SetupTestEnvironmentWithEnv(t, map[string]string{
		"RATE_LIMIT_PER_MIN": fmt.Sprint(maxPerMinute),
	})

	find := HTTPJSONStep{
		Name:           "find",
		Method:         http.MethodPost,
		URL:            collectionsEndpoint + "/limited/find",
		Body:           `{"filter": {}}`,
		ExpectedStatus: http.StatusOK,
	}

	for i := 0; i < maxPerMinute; i++ {
		ExecuteHTTPJSONStep(t, find, env.BaseURL)
	}

	find.Name = "find over quota"
	find.ExpectedStatus = http.StatusTooManyRequests
	ExecuteHTTPJSONStep(t, find, env.BaseURL)

	resp, err := env.Client.Get(env.BaseURL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz should bypass the limiter, got %d", resp.StatusCode)
	}
}
