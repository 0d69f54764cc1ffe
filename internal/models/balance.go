package models

import "time"

// stableAssets - активы, привязанные к USD; учитываются при расчете лимитов
var stableAssets = []string{"USDT", "USDC", "BUSD", "FDUSD", "USD"}

// AssetBalance - баланс одного актива
type AssetBalance struct {
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
	Locked    float64 `json:"locked"`
}

// NewAssetBalance строит баланс из total и available; locked не бывает отрицательным
func NewAssetBalance(total, available float64) AssetBalance {
	locked := total - available
	if locked < 0 {
		locked = 0
	}
	return AssetBalance{Total: total, Available: available, Locked: locked}
}

// BalanceSnapshot - балансы аккаунта на бирже в момент запроса
type BalanceSnapshot struct {
	Exchange  string                  `json:"exchange"`
	Testnet   bool                    `json:"testnet"`
	Assets    map[string]AssetBalance `json:"assets"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// NewBalanceSnapshot создает пустой снимок
func NewBalanceSnapshot(exchange string, testnet bool) *BalanceSnapshot {
	return &BalanceSnapshot{
		Exchange:  exchange,
		Testnet:   testnet,
		Assets:    make(map[string]AssetBalance),
		FetchedAt: time.Now().UTC(),
	}
}

// Add суммирует баланс актива (на случай нескольких кошельков одного актива)
func (s *BalanceSnapshot) Add(asset string, b AssetBalance) {
	cur := s.Assets[asset]
	cur.Total += b.Total
	cur.Available += b.Available
	cur.Locked += b.Locked
	s.Assets[asset] = cur
}

// StableUSD - сумма доступных средств в USD-стейблкоинах
func (s *BalanceSnapshot) StableUSD() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, asset := range stableAssets {
		if b, ok := s.Assets[asset]; ok && b.Available > 0 {
			total += b.Available
		}
	}
	return total
}
