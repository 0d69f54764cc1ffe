package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"tradekeys/internal/models"
)

const (
	okxBalanceURL      = "/api/v5/account/balance"
	okxConfigURL       = "/api/v5/account/config"
	okxTimestampLayout = "2006-01-02T15:04:05.000Z"
)

// У OKX демо-торговля на том же хосте, переключается заголовком x-simulated-trading
var okxEndpoints = Endpoints{
	Mainnet: "https://www.okx.com",
	Testnet: "https://www.okx.com",
}

// Коды ошибок OKX -> категория
var okxCodes = map[string]ErrorKind{
	"50111": KindInvalidAPIKey, // Invalid OK-ACCESS-KEY
	"50119": KindInvalidAPIKey, // API key doesn't exist
	"50105": KindInvalidAPIKey, // Invalid OK-ACCESS-PASSPHRASE
	"50100": KindInvalidAPIKey, // API frozen
	"50113": KindInvalidSignature,
	"50102": KindInvalidSignature, // timestamp expired
	"50120": KindInsufficientPermissions,
	"50110": KindInsufficientPermissions, // IP не в белом списке
}

// OKX - клиент OKX v5
type OKX struct {
	req       requester
	endpoints Endpoints
}

// NewOKX создает клиента OKX
func NewOKX(opts Options) *OKX {
	opts = opts.withDefaults()
	return &OKX{
		req:       newRequester(NameOKX, opts),
		endpoints: opts.endpoints(NameOKX, okxEndpoints),
	}
}

func (o *OKX) Name() string {
	return NameOKX
}

type okxEnvelope struct {
	Code *string             `json:"code"`
	Msg  string              `json:"msg"`
	Data jsoniter.RawMessage `json:"data"`
}

type okxAccountConfig struct {
	UID     string `json:"uid"`
	AcctLv  string `json:"acctLv"`
	PosMode string `json:"posMode"`
	Perm    string `json:"perm"` // "read_only,trade,withdraw"
	Label   string `json:"label"`
}

type okxBalance struct {
	TotalEq string `json:"totalEq"`
	Details []struct {
		Ccy      string `json:"ccy"`
		CashBal  string `json:"cashBal"`
		AvailBal string `json:"availBal"`
	} `json:"details"`
}

// ValidateCredentials проверяет ключи (/api/v5/account/config) и читает баланс.
// Ключ без права trade - ErrInsufficientPermissions.
func (o *OKX) ValidateCredentials(ctx context.Context, creds Credentials) (*ValidationResult, error) {
	var configs []okxAccountConfig
	if err := o.call(ctx, creds, okxConfigURL, &configs); err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, malformed(NameOKX, http.StatusOK, nil)
	}
	cfg := configs[0]

	perms := okxPermissions(cfg.Perm)
	result := &ValidationResult{Permissions: perms}
	if !result.HasPermission(PermissionTrade) {
		return nil, newError(NameOKX, KindInsufficientPermissions, "", "api key has no trade permission")
	}

	snap, err := o.FetchBalance(ctx, creds)
	if err != nil {
		return nil, err
	}

	result.Valid = true
	result.Balances = snap
	result.AccountInfo = map[string]string{
		"uid":         cfg.UID,
		"account_lvl": cfg.AcctLv,
		"pos_mode":    cfg.PosMode,
		"label":       cfg.Label,
	}
	return result, nil
}

// FetchBalance читает торговый аккаунт
func (o *OKX) FetchBalance(ctx context.Context, creds Credentials) (*models.BalanceSnapshot, error) {
	var balances []okxBalance
	if err := o.call(ctx, creds, okxBalanceURL, &balances); err != nil {
		return nil, err
	}

	snap := o.req.snapshot(creds.Testnet)
	for _, acc := range balances {
		for _, d := range acc.Details {
			total, err := parseAmount(d.CashBal)
			if err != nil {
				return nil, malformed(NameOKX, http.StatusOK, err)
			}
			available, err := parseAmount(d.AvailBal)
			if err != nil {
				return nil, malformed(NameOKX, http.StatusOK, err)
			}
			if total == 0 && available == 0 {
				continue
			}
			snap.Add(strings.ToUpper(d.Ccy), models.NewAssetBalance(total, available))
		}
	}
	return snap, nil
}

func (o *OKX) call(ctx context.Context, creds Credentials, path string, out interface{}) error {
	if creds.Passphrase == "" {
		return newError(NameOKX, KindInvalidAPIKey, "", "passphrase is required")
	}

	timestamp := o.req.now().UTC().Format(okxTimestampLayout)
	header := http.Header{}
	header.Set("OK-ACCESS-KEY", creds.APIKey)
	header.Set("OK-ACCESS-SIGN", okxSign(creds.Secret, timestamp, http.MethodGet, path, ""))
	header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	header.Set("OK-ACCESS-PASSPHRASE", creds.Passphrase)
	if creds.Testnet {
		header.Set("x-simulated-trading", "1")
	}

	resp, err := o.req.get(ctx, path, o.endpoints.url(creds.Testnet)+path, header)
	if err != nil {
		return err
	}

	var env okxEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.Code == nil {
		if !resp.ok() {
			return statusError(NameOKX, resp.Status, resp.Body)
		}
		return malformed(NameOKX, resp.Status, err)
	}

	if *env.Code != "0" {
		return codeError(NameOKX, okxCodes, *env.Code, env.Msg, resp.Status)
	}
	if !resp.ok() {
		return statusError(NameOKX, resp.Status, resp.Body)
	}

	if len(env.Data) == 0 {
		return malformed(NameOKX, resp.Status, nil)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return malformed(NameOKX, resp.Status, err)
	}
	return nil
}

// okxPermissions: "read_only,trade,withdraw" -> read, trade, withdraw
func okxPermissions(perm string) []string {
	var out []string
	for _, p := range strings.Split(perm, ",") {
		switch strings.TrimSpace(p) {
		case "read_only":
			out = append(out, PermissionRead)
		case "trade":
			out = append(out, PermissionTrade)
		case "withdraw":
			out = append(out, PermissionWithdraw)
		}
	}
	return out
}

// okxSign - base64(HMAC-SHA256(secret, timestamp + method + requestPath + body))
func okxSign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
