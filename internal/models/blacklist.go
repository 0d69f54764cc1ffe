package models

import "time"

// BlacklistEntry - символ, запрещенный к торговле.
// Пустой Exchange означает запрет на всех биржах.
type BlacklistEntry struct {
	ID        int64     `json:"id" db:"id"`
	Exchange  string    `json:"exchange" db:"exchange"`
	Symbol    string    `json:"symbol" db:"symbol"` // BTCUSDT
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsGlobal - запрет действует на всех биржах
func (e *BlacklistEntry) IsGlobal() bool {
	return e.Exchange == ""
}
