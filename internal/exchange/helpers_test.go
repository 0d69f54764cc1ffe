package exchange

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradekeys/pkg/ratelimit"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestServer поднимает httptest сервер и опции клиента, указывающие на него.
// Testnet запросы приходят с префиксом /testnet.
func newTestServer(t *testing.T, name string, handler http.HandlerFunc) (*httptest.Server, Options) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{
		HTTPClient: WrapHTTPClient(srv.Client()),
		Limiter:    ratelimit.NewRegistry(ratelimit.Limits{Rate: 1000, Burst: 1000}),
		Timeout:    2 * time.Second,
		Endpoints: map[string]Endpoints{
			name: {Mainnet: srv.URL, Testnet: srv.URL + "/testnet"},
		},
		Now: func() time.Time { return fixedNow },
	}
	return srv, opts
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
