//go:build e2e

package test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// HTTPJSONStep represents a single HTTP request step in a test
type HTTPJSONStep struct {
	Name           string
	Method         string
	URL            string
	Body           string // relaxed Extended JSON
	Headers        map[string]string
	ExpectedStatus int
	Validator      func(*testing.T, bson.M) // Optional response validator
}

// ExecuteHTTPJSONStep executes a single step and decodes the Extended JSON response
func ExecuteHTTPJSONStep(t *testing.T, step HTTPJSONStep, baseURL string) bson.M {
	t.Helper()
	t.Logf("step: %s", step.Name)

	resp, err := httpJSON(step.Method, baseURL+step.URL, step.Body, step.Headers)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, step.ExpectedStatus, resp.StatusCode, "body: %s", buf.String())

	var respData bson.M
	require.NoError(t, bson.UnmarshalExtJSON(buf.Bytes(), false, &respData), "body: %s", buf.String())

	if step.Validator != nil {
		step.Validator(t, respData)
	}

	return respData
}

// ExecuteHTTPJSONSteps executes a sequence of steps
func ExecuteHTTPJSONSteps(t *testing.T, steps []HTTPJSONStep, baseURL string) []bson.M {
	t.Helper()
	var results []bson.M

	for _, step := range steps {
		results = append(results, ExecuteHTTPJSONStep(t, step, baseURL))
	}

	return results
}

// ErrorMessageValidator validates that an error response contains expected message content
func ErrorMessageValidator(expectedSubstring string) func(*testing.T, bson.M) {
	return func(t *testing.T, respData bson.M) {
		t.Helper()
		errorMsg, exists := respData["error"]
		require.True(t, exists, "Expected error field to exist in response")
		assert.Contains(t, errorMsg.(string), expectedSubstring,
			"Expected error message to contain '%s', but got: %s", expectedSubstring, errorMsg)
	}
}

// CountValidator checks an integer result field such as deletedCount.
func CountValidator(field string, want int64) func(*testing.T, bson.M) {
	return func(t *testing.T, respData bson.M) {
		t.Helper()
		assert.EqualValues(t, want, respData[field], "field %s", field)
	}
}
