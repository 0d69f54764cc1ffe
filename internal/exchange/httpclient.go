package exchange

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClientConfig содержит настройки транспорта для запросов к биржам.
// Таймаут одного запроса задается отдельно (Options.Timeout) через контекст.
type HTTPClientConfig struct {
	ConnectTimeout      time.Duration // установка TCP соединения (default: 5s)
	TLSHandshakeTimeout time.Duration // TLS handshake (default: 5s)
	ResponseTimeout     time.Duration // ожидание заголовков ответа (default: 15s)

	// Connection pooling
	MaxIdleConns        int           // default: 100
	MaxIdleConnsPerHost int           // default: 10
	MaxConnsPerHost     int           // default: 20
	IdleConnTimeout     time.Duration // default: 90s
	KeepAliveInterval   time.Duration // default: 30s
}

// DefaultHTTPClientConfig возвращает конфигурацию по умолчанию
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout:      5 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		ResponseTimeout:     maxRequestTimeout,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
		KeepAliveInterval:   30 * time.Second,
	}
}

// HTTPClient - общий пул соединений для всех клиентов бирж
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient создаёт HTTP клиент с connection pooling
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ResponseTimeout,
	}

	return &HTTPClient{client: &http.Client{Transport: transport}}
}

// WrapHTTPClient использует готовый http.Client (httptest, прокси)
func WrapHTTPClient(c *http.Client) *HTTPClient {
	return &HTTPClient{client: c}
}

// Do выполняет запрос; таймаут задается контекстом запроса
func (hc *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// Close закрывает все idle соединения.
// Должен вызываться при graceful shutdown
func (hc *HTTPClient) Close() {
	hc.client.CloseIdleConnections()
}
