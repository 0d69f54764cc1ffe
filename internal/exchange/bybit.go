package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"tradekeys/internal/models"
)

const (
	bybitRecvWindow    = "5000"
	bybitWalletURL     = "/v5/account/wallet-balance"
	bybitQueryAPIURL   = "/v5/user/query-api"
	bybitAccountType   = "UNIFIED"
	bybitReadOnlyValue = 1
)

var bybitEndpoints = Endpoints{
	Mainnet: "https://api.bybit.com",
	Testnet: "https://api-testnet.bybit.com",
}

// Коды retCode Bybit v5 -> категория
var bybitCodes = map[string]ErrorKind{
	"10003": KindInvalidAPIKey, // API key is invalid
	"33004": KindInvalidAPIKey, // API key expired
	"10001": KindInvalidAPIKey, // params error (в т.ч. пустой ключ)
	"10004": KindInvalidSignature,
	"10002": KindInvalidSignature, // timestamp вне recv_window
	"10005": KindInsufficientPermissions,
	"10010": KindInsufficientPermissions, // IP не в белом списке
}

// Bybit - клиент единого торгового аккаунта Bybit v5
type Bybit struct {
	req       requester
	endpoints Endpoints
}

// NewBybit создает клиента Bybit
func NewBybit(opts Options) *Bybit {
	opts = opts.withDefaults()
	return &Bybit{
		req:       newRequester(NameBybit, opts),
		endpoints: opts.endpoints(NameBybit, bybitEndpoints),
	}
}

func (b *Bybit) Name() string {
	return NameBybit
}

// bybitEnvelope - общая оболочка ответов v5
type bybitEnvelope struct {
	RetCode *int                `json:"retCode"`
	RetMsg  string              `json:"retMsg"`
	Result  jsoniter.RawMessage `json:"result"`
}

type bybitAPIKeyInfo struct {
	ID          string              `json:"id"`
	Note        string              `json:"note"`
	ReadOnly    int                 `json:"readOnly"`
	Permissions map[string][]string `json:"permissions"`
	UTA         int                 `json:"uta"`
	ExpiredAt   string              `json:"expiredAt"`
}

type bybitWallet struct {
	List []struct {
		AccountType string `json:"accountType"`
		TotalEquity string `json:"totalEquity"`
		Coin        []struct {
			Coin                string `json:"coin"`
			WalletBalance       string `json:"walletBalance"`
			Locked              string `json:"locked"`
			AvailableToWithdraw string `json:"availableToWithdraw"`
		} `json:"coin"`
	} `json:"list"`
}

// ValidateCredentials проверяет права ключа (/v5/user/query-api) и читает баланс.
// Ключ только для чтения - ErrInsufficientPermissions.
func (b *Bybit) ValidateCredentials(ctx context.Context, creds Credentials) (*ValidationResult, error) {
	var info bybitAPIKeyInfo
	if err := b.call(ctx, creds, bybitQueryAPIURL, nil, &info); err != nil {
		return nil, err
	}

	if info.ReadOnly == bybitReadOnlyValue {
		return nil, newError(NameBybit, KindInsufficientPermissions, "", "api key is read-only")
	}

	snap, err := b.FetchBalance(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		Valid:       true,
		Permissions: bybitPermissions(info),
		Balances:    snap,
		AccountInfo: map[string]string{
			"key_id":       info.ID,
			"note":         info.Note,
			"uta":          strconv.Itoa(info.UTA),
			"expired_at":   info.ExpiredAt,
			"account_type": bybitAccountType,
		},
	}, nil
}

// FetchBalance читает кошелек UNIFIED
func (b *Bybit) FetchBalance(ctx context.Context, creds Credentials) (*models.BalanceSnapshot, error) {
	params := url.Values{}
	params.Set("accountType", bybitAccountType)

	var wallet bybitWallet
	if err := b.call(ctx, creds, bybitWalletURL, params, &wallet); err != nil {
		return nil, err
	}

	snap := b.req.snapshot(creds.Testnet)
	for _, acc := range wallet.List {
		for _, c := range acc.Coin {
			total, err := parseAmount(c.WalletBalance)
			if err != nil {
				return nil, malformed(NameBybit, http.StatusOK, err)
			}
			locked, err := parseAmount(c.Locked)
			if err != nil {
				return nil, malformed(NameBybit, http.StatusOK, err)
			}
			available := total - locked
			if c.AvailableToWithdraw != "" {
				if available, err = parseAmount(c.AvailableToWithdraw); err != nil {
					return nil, malformed(NameBybit, http.StatusOK, err)
				}
			}
			if total == 0 && available == 0 {
				continue
			}
			snap.Add(strings.ToUpper(c.Coin), models.NewAssetBalance(total, available))
		}
	}
	return snap, nil
}

// call выполняет подписанный GET и разбирает result в out
func (b *Bybit) call(ctx context.Context, creds Credentials, path string, params url.Values, out interface{}) error {
	query := params.Encode()
	fullURL := b.endpoints.url(creds.Testnet) + path
	if query != "" {
		fullURL += "?" + query
	}

	timestamp := b.req.timestampMillis()
	header := http.Header{}
	header.Set("X-BAPI-API-KEY", creds.APIKey)
	header.Set("X-BAPI-SIGN", bybitSign(creds.Secret, timestamp, creds.APIKey, bybitRecvWindow, query))
	header.Set("X-BAPI-TIMESTAMP", timestamp)
	header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)

	resp, err := b.req.get(ctx, path, fullURL, header)
	if err != nil {
		return err
	}

	var env bybitEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.RetCode == nil {
		if !resp.ok() {
			return statusError(NameBybit, resp.Status, resp.Body)
		}
		return malformed(NameBybit, resp.Status, err)
	}

	if *env.RetCode != 0 {
		return codeError(NameBybit, bybitCodes, strconv.Itoa(*env.RetCode), env.RetMsg, resp.Status)
	}
	if !resp.ok() {
		return statusError(NameBybit, resp.Status, resp.Body)
	}

	if len(env.Result) == 0 {
		return malformed(NameBybit, resp.Status, nil)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return malformed(NameBybit, resp.Status, err)
	}
	return nil
}

// bybitPermissions переводит права Bybit в нормализованный список
func bybitPermissions(info bybitAPIKeyInfo) []string {
	perms := []string{PermissionRead}
	if info.ReadOnly != bybitReadOnlyValue {
		perms = append(perms, PermissionTrade)
	}

	var raw []string
	for group, list := range info.Permissions {
		for _, p := range list {
			raw = append(raw, group+":"+p)
		}
		if group == "Wallet" {
			for _, p := range list {
				if p == "Withdraw" {
					perms = append(perms, PermissionWithdraw)
				}
			}
		}
	}
	sort.Strings(raw)
	return append(perms, raw...)
}

// bybitSign - hex(HMAC-SHA256(secret, timestamp + apiKey + recvWindow + queryString))
func bybitSign(secret, timestamp, apiKey, recvWindow, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + apiKey + recvWindow + query))
	return hex.EncodeToString(mac.Sum(nil))
}
