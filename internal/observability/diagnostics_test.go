package observability_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
)

func TestDiagnosticsServer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, metrics, err := observability.NewPrometheusReader()
	require.NoError(t, err)

	srv, err := observability.NewDiagnosticsServer(ctx, "127.0.0.1:0", metrics, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close(ctx)) })

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+srv.Addr()+path, http.NoBody)
		require.NoError(t, reqErr)

		resp, doErr := http.DefaultClient.Do(req)
		require.NoError(t, doErr, path)

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestDiagnosticsServer_ListenError(t *testing.T) {
	t.Parallel()

	_, err := observability.NewDiagnosticsServer(context.Background(), "not-an-address", nil, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
