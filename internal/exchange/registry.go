package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry - реестр клиентов бирж по имени.
// Новая биржа подключается вызовом Register без правок вызывающего кода.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// NewDefaultRegistry регистрирует Binance, Bybit и OKX с общими зависимостями
func NewDefaultRegistry(opts Options) *Registry {
	opts = opts.withDefaults()

	r := NewRegistry()
	for _, c := range []Client{NewBinance(opts), NewBybit(opts), NewOKX(opts)} {
		// имена встроенных клиентов уникальны
		_ = r.Register(c)
	}
	return r
}

// Register добавляет клиента; повторная регистрация имени - ошибка
func (r *Registry) Register(c Client) error {
	name := strings.ToLower(c.Name())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("exchange %q already registered", name)
	}
	r.clients[name] = c
	return nil
}

// Get возвращает клиента биржи или ErrUnsupportedExchange
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, name)
	}
	return c, nil
}

// Has проверяет, зарегистрирована ли биржа
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.clients[strings.ToLower(name)]
	return ok
}

// Names возвращает отсортированный список бирж
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
