//go:build e2e

package test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// docctl runs the CLI with MONGO_URI/MONGO_DB_NAME inherited from the test
// environment and returns stdout and the exit code.
func docctl(t *testing.T, args ...string) (string, int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_DOCCTL"); bin != "" {
		cmd = exec.CommandContext(ctx, bin, args...)
	} else {
		cmd = exec.CommandContext(ctx, "go", append([]string{"run", "./cmd/docctl"}, args...)...)
		cmd.Dir = "../"
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.Logf("docctl %v stderr:\n%s", args, stderr.String())
		return stdout.String(), exitErr.ExitCode()
	}
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String(), 0
}

func TestDocctlE2E(t *testing.T) {
	env := SetupTestEnvironment(t)

	out, code := docctl(t, "health", "--url", env.BaseURL)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "service healthy")

	out, code = docctl(t, "ping")
	require.Equal(t, 0, code)
	assert.Equal(t, "ok e2e\n", out)

	oid := bson.NewObjectID()
	out, code = docctl(t, "insert", "cli_orders", `{"status": "open", "total": 3}`, "--id", oid.Hex())
	require.Equal(t, 0, code)
	assert.Contains(t, out, oid.Hex())

	out, code = docctl(t, "seed", "cli_orders", "--count", "30", "--batch", "7", "--seed", "1")
	require.Equal(t, 0, code)
	assert.Equal(t, "inserted 30 documents into cli_orders\n", out)

	// the gateway sees what the CLI wrote
	body := ExecuteHTTPJSONStep(t, HTTPJSONStep{
		Name:           "find through the gateway",
		Method:         "POST",
		URL:            collectionsEndpoint + "/cli_orders/find",
		Body:           `{"filter": {}}`,
		ExpectedStatus: 200,
	}, env.BaseURL)
	docs, ok := body["documents"].(bson.A)
	require.True(t, ok, "got %T", body["documents"])
	assert.Len(t, docs, 31)

	out, code = docctl(t, "find", "cli_orders", `{"_id": {"$oid": "`+oid.Hex()+`"}}`, "--one")
	require.Equal(t, 0, code)
	var found bson.M
	require.NoError(t, bson.UnmarshalExtJSON([]byte(strings.TrimSpace(out)), false, &found))
	assert.Equal(t, oid, found["_id"])

	out, code = docctl(t, "update", "cli_orders", `{"_id": {"$oid": "`+oid.Hex()+`"}}`, `{"$unknown": {"a": 1}}`)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)

	out, code = docctl(t, "delete", "cli_orders", "{}", "--many")
	require.Equal(t, 0, code)
	var res bson.M
	require.NoError(t, bson.UnmarshalExtJSON([]byte(strings.TrimSpace(out)), false, &res))
	assert.EqualValues(t, 31, res["deletedCount"])
}

func TestDocctlHealthExitCodeE2E(t *testing.T) {
	if os.Getenv("BIN_DOCCTL") == "" {
		t.Skip("go run reports exit status 1 for every failure; set BIN_DOCCTL")
	}
	_, code := docctl(t, "health", "--url", "http://127.0.0.1:1")
	assert.Equal(t, 2, code)
}
