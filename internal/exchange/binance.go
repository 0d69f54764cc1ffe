package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"tradekeys/internal/models"
)

const (
	binanceRecvWindow = "5000"
	binanceAccountURL = "/fapi/v2/account"
)

var binanceEndpoints = Endpoints{
	Mainnet: "https://fapi.binance.com",
	Testnet: "https://testnet.binancefuture.com",
}

// Коды ошибок Binance -> категория
var binanceCodes = map[string]ErrorKind{
	"-2014": KindInvalidAPIKey, // API-key format invalid
	"-2015": KindInvalidAPIKey, // Invalid API-key, IP, or permissions
	"-2008": KindInvalidAPIKey, // Invalid Api-Key ID
	"-1022": KindInvalidSignature,
	"-1021": KindInvalidSignature, // timestamp вне recvWindow
	"-2010": KindInsufficientPermissions,
	"-1002": KindInsufficientPermissions, // unauthorized
}

// Binance - клиент USDⓈ-M фьючерсов Binance
type Binance struct {
	req       requester
	endpoints Endpoints
}

// NewBinance создает клиента Binance
func NewBinance(opts Options) *Binance {
	opts = opts.withDefaults()
	return &Binance{
		req:       newRequester(NameBinance, opts),
		endpoints: opts.endpoints(NameBinance, binanceEndpoints),
	}
}

func (b *Binance) Name() string {
	return NameBinance
}

type binanceAccount struct {
	FeeTier            int    `json:"feeTier"`
	CanTrade           bool   `json:"canTrade"`
	CanDeposit         bool   `json:"canDeposit"`
	CanWithdraw        bool   `json:"canWithdraw"`
	TotalWalletBalance string `json:"totalWalletBalance"`
	AvailableBalance   string `json:"availableBalance"`
	Assets             []struct {
		Asset            string `json:"asset"`
		WalletBalance    string `json:"walletBalance"`
		AvailableBalance string `json:"availableBalance"`
	} `json:"assets"`
}

// ValidateCredentials проверяет ключи запросом /fapi/v2/account
func (b *Binance) ValidateCredentials(ctx context.Context, creds Credentials) (*ValidationResult, error) {
	acc, err := b.account(ctx, creds)
	if err != nil {
		return nil, err
	}

	var perms []string
	perms = append(perms, PermissionRead)
	if acc.CanTrade {
		perms = append(perms, PermissionTrade)
	}
	if acc.CanDeposit {
		perms = append(perms, PermissionDeposit)
	}
	if acc.CanWithdraw {
		perms = append(perms, PermissionWithdraw)
	}

	if !acc.CanTrade {
		return nil, newError(NameBinance, KindInsufficientPermissions, "", "api key has no futures trading permission")
	}

	snap, err := b.toSnapshot(acc, creds.Testnet)
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		Valid:       true,
		Permissions: perms,
		Balances:    snap,
		AccountInfo: map[string]string{
			"fee_tier":             strconv.Itoa(acc.FeeTier),
			"total_wallet_balance": acc.TotalWalletBalance,
			"account_type":         "USDT-M futures",
		},
	}, nil
}

// FetchBalance возвращает балансы фьючерсного кошелька
func (b *Binance) FetchBalance(ctx context.Context, creds Credentials) (*models.BalanceSnapshot, error) {
	acc, err := b.account(ctx, creds)
	if err != nil {
		return nil, err
	}
	return b.toSnapshot(acc, creds.Testnet)
}

func (b *Binance) account(ctx context.Context, creds Credentials) (*binanceAccount, error) {
	// порядок параметров как в документации: timestamp, затем recvWindow
	query := "timestamp=" + b.req.timestampMillis() + "&recvWindow=" + binanceRecvWindow
	fullURL := b.endpoints.url(creds.Testnet) + binanceAccountURL + "?" + query + "&signature=" + binanceSign(creds.Secret, query)

	header := http.Header{}
	header.Set("X-MBX-APIKEY", creds.APIKey)

	resp, err := b.req.get(ctx, binanceAccountURL, fullURL, header)
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		return nil, b.errorFromResponse(resp)
	}

	var acc binanceAccount
	if err := b.req.decode(resp, &acc); err != nil {
		return nil, err
	}
	if acc.Assets == nil {
		return nil, malformed(NameBinance, resp.Status, nil)
	}
	return &acc, nil
}

// errorFromResponse разбирает тело {"code":-2015,"msg":"..."}
func (b *Binance) errorFromResponse(resp *rawResponse) error {
	var apiErr struct {
		Code *int   `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(resp.Body, &apiErr); err != nil || apiErr.Code == nil {
		return statusError(NameBinance, resp.Status, resp.Body)
	}
	return codeError(NameBinance, binanceCodes, strconv.Itoa(*apiErr.Code), apiErr.Msg, resp.Status)
}

func (b *Binance) toSnapshot(acc *binanceAccount, testnet bool) (*models.BalanceSnapshot, error) {
	snap := b.req.snapshot(testnet)
	for _, a := range acc.Assets {
		total, err := parseAmount(a.WalletBalance)
		if err != nil {
			return nil, malformed(NameBinance, http.StatusOK, err)
		}
		available, err := parseAmount(a.AvailableBalance)
		if err != nil {
			return nil, malformed(NameBinance, http.StatusOK, err)
		}
		if total == 0 && available == 0 {
			continue
		}
		snap.Add(strings.ToUpper(a.Asset), models.NewAssetBalance(total, available))
	}
	return snap, nil
}

// binanceSign - hex(HMAC-SHA256(secret, query))
func binanceSign(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
