package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind - нормализованная категория ошибки биржи
type ErrorKind string

const (
	KindInvalidAPIKey           ErrorKind = "InvalidApiKey"
	KindInvalidSignature        ErrorKind = "InvalidSignature"
	KindInsufficientPermissions ErrorKind = "InsufficientPermissions"
	KindNetworkTimeout          ErrorKind = "NetworkTimeout"
	KindMalformedResponse       ErrorKind = "MalformedResponse"
	KindUnknown                 ErrorKind = "UnknownError"
)

// Сентинелы для errors.Is: любая *ExchangeError совпадает с сентинелом своей категории
var (
	ErrInvalidAPIKey           = errors.New("invalid api key")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrNetworkTimeout          = errors.New("network timeout")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrUnknown                 = errors.New("unknown exchange error")
)

// ErrUnsupportedExchange - биржа не зарегистрирована
var ErrUnsupportedExchange = errors.New("unsupported exchange")

var kindSentinels = map[ErrorKind]error{
	KindInvalidAPIKey:           ErrInvalidAPIKey,
	KindInvalidSignature:        ErrInvalidSignature,
	KindInsufficientPermissions: ErrInsufficientPermissions,
	KindNetworkTimeout:          ErrNetworkTimeout,
	KindMalformedResponse:       ErrMalformedResponse,
	KindUnknown:                 ErrUnknown,
}

// ExchangeError - ошибка биржи с нормализованной категорией и исходным кодом
type ExchangeError struct {
	Exchange   string
	Kind       ErrorKind
	Code       string // код биржи как есть (-2015, 10004, 50111)
	Message    string
	HTTPStatus int
	Original   error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Exchange, e.Kind)
	if e.Code != "" {
		msg += " (code " + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Original != nil {
		msg += ": " + e.Original.Error()
	}
	return msg
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}

// Is сопоставляет ошибку с сентинелом категории
func (e *ExchangeError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf возвращает категорию ошибки; для ошибок не от биржи - пустую строку
func KindOf(err error) ErrorKind {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Kind
	}
	return ""
}

// IsCredentialRejection - биржа явно отвергла ключи.
// Такой результат сохраняется как статус проверки, в отличие от сетевых сбоев.
func IsCredentialRejection(err error) bool {
	return errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrInsufficientPermissions)
}

func newError(exchange string, kind ErrorKind, code, message string) *ExchangeError {
	return &ExchangeError{Exchange: exchange, Kind: kind, Code: code, Message: message}
}

// codeError строит ошибку по таблице кодов биржи.
// Неизвестный код классифицируется по HTTP статусу.
func codeError(exchange string, codes map[string]ErrorKind, code, message string, status int) *ExchangeError {
	kind, ok := codes[code]
	if !ok {
		kind = kindForStatus(status)
	}
	e := newError(exchange, kind, code, message)
	e.HTTPStatus = status
	return e
}

// statusError - ответ без разбираемого кода ошибки
func statusError(exchange string, status int, body []byte) *ExchangeError {
	e := newError(exchange, kindForStatus(status), "", truncate(string(body), 200))
	e.HTTPStatus = status
	return e
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindInvalidAPIKey
	case http.StatusForbidden:
		return KindInsufficientPermissions
	default:
		return KindUnknown
	}
}

func malformed(exchange string, status int, cause error) *ExchangeError {
	e := newError(exchange, KindMalformedResponse, "", "unexpected response body")
	e.HTTPStatus = status
	e.Original = cause
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
