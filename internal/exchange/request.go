package exchange

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"tradekeys/internal/models"
	"tradekeys/pkg/ratelimit"
)

const (
	// DefaultRequestTimeout - таймаут одного запроса к бирже
	DefaultRequestTimeout = 10 * time.Second

	minRequestTimeout = 1 * time.Second
	maxRequestTimeout = 15 * time.Second

	// maxResponseSize ограничивает чтение тела ответа
	maxResponseSize = 4 << 20
)

// Endpoints - базовые URL биржи
type Endpoints struct {
	Mainnet string
	Testnet string
}

func (e Endpoints) url(testnet bool) string {
	if testnet {
		return e.Testnet
	}
	return e.Mainnet
}

// Options - общие зависимости клиентов бирж
type Options struct {
	HTTPClient *HTTPClient
	Limiter    *ratelimit.Registry
	Timeout    time.Duration

	// Endpoints переопределяет URL бирж по имени (тесты, прокси)
	Endpoints map[string]Endpoints

	// Now - источник времени для подписи запросов
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = NewHTTPClient(DefaultHTTPClientConfig())
	}
	if o.Limiter == nil {
		o.Limiter = ratelimit.NewRegistry(ratelimit.Limits{})
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultRequestTimeout
	}
	if o.Timeout < minRequestTimeout {
		o.Timeout = minRequestTimeout
	}
	if o.Timeout > maxRequestTimeout {
		o.Timeout = maxRequestTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) endpoints(name string, fallback Endpoints) Endpoints {
	if e, ok := o.Endpoints[name]; ok {
		return e
	}
	return fallback
}

// requester - общий путь запроса: лимит частоты, таймаут, метрики, классификация ошибок.
// Повторов нет.
type requester struct {
	exchange string
	http     *HTTPClient
	limiter  *ratelimit.Registry
	timeout  time.Duration
	now      func() time.Time
}

func newRequester(exchange string, opts Options) requester {
	return requester{
		exchange: exchange,
		http:     opts.HTTPClient,
		limiter:  opts.Limiter,
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
}

// rawResponse - статус и тело ответа биржи
type rawResponse struct {
	Status int
	Body   []byte
}

func (r rawResponse) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// get выполняет GET запрос. endpoint - метка метрики (путь без query).
// Ответ с любым HTTP статусом возвращается как есть: разбор кода ошибки - дело биржи.
func (r requester) get(ctx context.Context, endpoint, fullURL string, header http.Header) (*rawResponse, error) {
	start := time.Now()
	resp, err := r.doGet(ctx, fullURL, header)
	observeRequest(r.exchange, endpoint, float64(time.Since(start).Microseconds())/1000, err)
	return resp, err
}

func (r requester) doGet(ctx context.Context, fullURL string, header http.Header) (*rawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx, r.exchange); err != nil {
		if ctx.Err() == nil {
			// токен освободится позже дедлайна запроса
			return nil, &ExchangeError{Exchange: r.exchange, Kind: KindNetworkTimeout, Message: "rate limit wait exceeds deadline", Original: err}
		}
		return nil, r.transportError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &ExchangeError{Exchange: r.exchange, Kind: KindUnknown, Message: "build request", Original: err}
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, r.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, r.transportError(ctx, err)
	}

	return &rawResponse{Status: resp.StatusCode, Body: body}, nil
}

// transportError: дедлайн и сетевой таймаут - NetworkTimeout, остальное - UnknownError.
// Исходная ошибка сохраняется (errors.Is(err, context.Canceled) работает).
func (r requester) transportError(ctx context.Context, err error) error {
	kind := KindUnknown

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = KindNetworkTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindNetworkTimeout
	}

	return &ExchangeError{Exchange: r.exchange, Kind: kind, Message: "request failed", Original: err}
}

// decode разбирает JSON; ошибка разбора - MalformedResponse
func (r requester) decode(resp *rawResponse, v interface{}) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return malformed(r.exchange, resp.Status, err)
	}
	return nil
}

func (r requester) timestampMillis() string {
	return strconv.FormatInt(r.now().UnixMilli(), 10)
}

func (r requester) snapshot(testnet bool) *models.BalanceSnapshot {
	s := models.NewBalanceSnapshot(r.exchange, testnet)
	s.FetchedAt = r.now().UTC()
	return s
}

// parseAmount разбирает строковое число биржи; пустая строка - 0
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
