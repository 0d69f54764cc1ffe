package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// ============ Credential Tests ============

func TestCredential_JSONHidesSecrets(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	cred := Credential{
		ID:               1,
		UserID:           2,
		Exchange:         "bybit",
		APIKey:           "secret_api_key_value",
		SecretKey:        "secret_key_value",
		Passphrase:       "secret_passphrase",
		Environment:      EnvironmentMainnet,
		IsActive:         true,
		ValidationStatus: ValidationValidated,
		LastValidatedAt:  &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	data, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}
	jsonStr := string(data)

	// Секретные поля не должны попадать в JSON (тег json:"-")
	for _, secret := range []string{"secret_api_key_value", "secret_key_value", "secret_passphrase"} {
		if strings.Contains(jsonStr, secret) {
			t.Errorf("секретное поле %q не должно быть в JSON", secret)
		}
	}
	for _, field := range []string{`"user_id":2`, `"exchange":"bybit"`, `"validation_status":"validated"`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("поле %s должно быть в JSON: %s", field, jsonStr)
		}
	}
}

func TestCredential_View(t *testing.T) {
	cred := Credential{APIKey: "ABCD1234567890WXYZ", SecretKey: "s", Passphrase: "p", Environment: EnvironmentTestnet}

	view := cred.View()
	if view.APIKeyMasked != "ABCD****WXYZ" {
		t.Errorf("APIKeyMasked = %q", view.APIKeyMasked)
	}
	if view.APIKey != "" || view.SecretKey != "" || view.Passphrase != "" {
		t.Error("View must drop secrets")
	}
	if cred.SecretKey != "s" {
		t.Error("View must not modify the original")
	}
	if !view.IsTestnet() {
		t.Error("IsTestnet should be true")
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"short":              "****",
		"12345678":           "****",
		"123456789":          "1234****6789",
		"AKIAXXXXXXXXXXXX99": "AKIA****XX99",
	}
	for in, want := range tests {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolvedCredential_JSON(t *testing.T) {
	rc := ResolvedCredential{APIKey: "key-value", Secret: "secret-value", Passphrase: "pass-value", Testnet: true, Source: SourceSystemTestnet}

	data, _ := json.Marshal(rc)
	for _, secret := range []string{"key-value", "secret-value", "pass-value"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("resolved credential leaks %q", secret)
		}
	}
	if !strings.Contains(string(data), SourceSystemTestnet) {
		t.Errorf("source missing: %s", data)
	}
}

// ============ TradingParameters Tests ============

func TestDefaultTradingParameters(t *testing.T) {
	p := DefaultTradingParameters(7)

	if p.UserID != 7 {
		t.Errorf("UserID = %d, want 7", p.UserID)
	}
	if p.Alavancagem != 5 || p.PercentualSaldo != 30 || p.ValorMinimoTrade != 10 || p.ValorMaximoTrade != 5000 {
		t.Errorf("unexpected sizing defaults: %+v", p)
	}
	if p.TakeProfitMultiplier != 2 || p.StopLossMultiplier != 3 {
		t.Errorf("unexpected TP/SL defaults: %+v", p)
	}
	if p.MaxOperacoesDiarias != 20 || p.MaxPosicoesSimultaneas != 2 || p.LimitePerdaDiaria != 500 || p.MaxDrawdownPct != 20 {
		t.Errorf("unexpected risk defaults: %+v", p)
	}
	if p.ExchangesAtivas == nil || len(p.ExchangesAtivas) != 0 {
		t.Errorf("ExchangesAtivas = %v, want empty non-nil", p.ExchangesAtivas)
	}
	if !p.TradingAtivo {
		t.Error("trading must be enabled by default")
	}
}

func TestTradingParamsUpdate_ApplyTo(t *testing.T) {
	base := DefaultTradingParameters(1)
	pct := 45.0
	lev := 3
	exchanges := []string{"okx"}
	off := false

	upd := TradingParamsUpdate{PercentualSaldo: &pct, Alavancagem: &lev, ExchangesAtivas: &exchanges, TradingAtivo: &off}
	merged := upd.ApplyTo(base)

	if merged.PercentualSaldo != 45 || merged.Alavancagem != 3 || merged.TradingAtivo {
		t.Errorf("fields not merged: %+v", merged)
	}
	if merged.ValorMaximoTrade != DefaultValorMaximoTrade {
		t.Error("nil fields must keep current value")
	}
	if !merged.HasExchange("okx") || merged.HasExchange("bybit") {
		t.Errorf("ExchangesAtivas = %v", merged.ExchangesAtivas)
	}

	// Исходные параметры не меняются
	if base.PercentualSaldo != DefaultPercentualSaldo || len(base.ExchangesAtivas) != 0 {
		t.Errorf("ApplyTo modified base: %+v", base)
	}
	exchanges[0] = "binance"
	if merged.ExchangesAtivas[0] != "okx" {
		t.Error("merged slice must not alias the update")
	}
}

func TestTradingParamsUpdate_JSON(t *testing.T) {
	var upd TradingParamsUpdate
	if err := json.Unmarshal([]byte(`{"percentual_saldo": 60, "exchanges_ativas": []}`), &upd); err != nil {
		t.Fatalf("ошибка десериализации: %v", err)
	}
	if upd.PercentualSaldo == nil || *upd.PercentualSaldo != 60 {
		t.Error("percentual_saldo not parsed")
	}
	if upd.ExchangesAtivas == nil || len(*upd.ExchangesAtivas) != 0 {
		t.Error("explicit empty list must be distinguishable from absent")
	}
	if upd.Alavancagem != nil {
		t.Error("absent field must stay nil")
	}
}

// ============ Balance Tests ============

func TestNewAssetBalance(t *testing.T) {
	b := NewAssetBalance(100, 70)
	if b.Locked != 30 {
		t.Errorf("Locked = %v, want 30", b.Locked)
	}
	if NewAssetBalance(50, 60).Locked != 0 {
		t.Error("Locked must never be negative")
	}
}

func TestBalanceSnapshot_StableUSD(t *testing.T) {
	s := NewBalanceSnapshot("binance", false)
	s.Add("USDT", NewAssetBalance(800, 600))
	s.Add("USDC", NewAssetBalance(400, 400))
	s.Add("BTC", NewAssetBalance(1, 1))
	s.Add("USDT", NewAssetBalance(100, 100))

	if got := s.StableUSD(); got != 1100 {
		t.Errorf("StableUSD = %v, want 1100", got)
	}
	if s.Assets["USDT"].Total != 900 {
		t.Errorf("Add must accumulate, USDT total = %v", s.Assets["USDT"].Total)
	}

	var nilSnap *BalanceSnapshot
	if nilSnap.StableUSD() != 0 {
		t.Error("nil snapshot must report 0")
	}
}

// ============ Blacklist Tests ============

func TestBlacklistEntry_IsGlobal(t *testing.T) {
	if !(&BlacklistEntry{Symbol: "LUNAUSDT"}).IsGlobal() {
		t.Error("entry without exchange is global")
	}
	if (&BlacklistEntry{Exchange: "okx", Symbol: "LUNAUSDT"}).IsGlobal() {
		t.Error("entry with exchange is not global")
	}
}

// ============ OperationBundle Tests ============

func TestOperationBundle_JSONHidesCredential(t *testing.T) {
	bundle := OperationBundle{
		UserID:     1,
		Exchange:   "okx",
		Symbol:     "BTCUSDT",
		Credential: &ResolvedCredential{APIKey: "visible?", Secret: "nope", Source: SourceUser},
		Limits:     OperationLimits{ValorPorOperacao: 300, BalanceAware: true, Viavel: true},
		Provenance: Provenance{CredentialSource: SourceUser, BalanceSource: BalanceSourceLive},
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "visible?") || strings.Contains(s, "nope") {
		t.Errorf("bundle leaks secrets: %s", s)
	}
	for _, field := range []string{`"valor_por_operacao":300`, `"balance_source":"live"`, `"credential_source":"USER"`} {
		if !strings.Contains(s, field) {
			t.Errorf("field %s missing: %s", field, s)
		}
	}
}
