package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{name: "ok", status: http.StatusOK, body: `{"status":"ok"}`},
		{name: "ok without body", status: http.StatusOK},
		{name: "database down", status: http.StatusServiceUnavailable, body: `{"status":"down","error":"no primary"}`, wantCode: codeBadHTTPStatus},
		{name: "garbage body", status: http.StatusOK, body: `{"status":`, wantCode: codeDecodeError},
		{name: "reported unhealthy", status: http.StatusOK, body: `{"status":"degraded"}`, wantCode: codeReportedUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, healthEndpoint, r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out bytes.Buffer
			err := checkHealth(context.Background(), srv.URL+"/", &out)

			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Contains(t, out.String(), "service healthy")
				return
			}
			var he *healthError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantCode, he.code)
			assert.Empty(t, out.String())
		})
	}
}

func TestCheckHealthDownIncludesReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"down","error":"no primary"}`))
	}))
	defer srv.Close()

	err := checkHealth(context.Background(), srv.URL, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "no primary")
}

func TestCheckHealthRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := checkHealth(context.Background(), url, &bytes.Buffer{})

	var he *healthError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, codeRequestFailed, he.code)
}
