package service

import (
	"sort"
	"strings"
)

// SystemCredential - операторский ключ одной сети
type SystemCredential struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// SystemCredentialSet - операторские ключи биржи; nil - сеть не настроена
type SystemCredentialSet struct {
	Mainnet *SystemCredential
	Testnet *SystemCredential
}

// SystemCredentialPool - операторские ключи, загруженные при старте.
// После создания только читается, поэтому разделяется между горутинами без блокировок.
type SystemCredentialPool struct {
	sets map[string]SystemCredentialSet
}

// NewSystemCredentialPool копирует входные данные; имена бирж приводятся к нижнему регистру
func NewSystemCredentialPool(sets map[string]SystemCredentialSet) *SystemCredentialPool {
	pool := &SystemCredentialPool{sets: make(map[string]SystemCredentialSet, len(sets))}
	for name, set := range sets {
		copied := SystemCredentialSet{
			Mainnet: copyCredential(set.Mainnet),
			Testnet: copyCredential(set.Testnet),
		}
		if copied.Mainnet == nil && copied.Testnet == nil {
			continue
		}
		pool.sets[strings.ToLower(strings.TrimSpace(name))] = copied
	}
	return pool
}

// Mainnet возвращает копию операторского ключа основной сети
func (p *SystemCredentialPool) Mainnet(exchange string) (*SystemCredential, bool) {
	if p == nil {
		return nil, false
	}
	c := copyCredential(p.sets[strings.ToLower(exchange)].Mainnet)
	return c, c != nil
}

// Testnet возвращает копию операторского ключа тестовой сети
func (p *SystemCredentialPool) Testnet(exchange string) (*SystemCredential, bool) {
	if p == nil {
		return nil, false
	}
	c := copyCredential(p.sets[strings.ToLower(exchange)].Testnet)
	return c, c != nil
}

// Exchanges - биржи, для которых настроен хотя бы один ключ
func (p *SystemCredentialPool) Exchanges() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.sets))
	for name := range p.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyCredential(c *SystemCredential) *SystemCredential {
	if c == nil || c.APIKey == "" || c.Secret == "" {
		return nil
	}
	cp := *c
	return &cp
}
