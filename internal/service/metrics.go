package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Метрики сервисов ============

// CredentialResolutionsTotal - выбор ключей по источнику
var CredentialResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradekeys",
		Name:      "credentials_resolutions_total",
		Help:      "Credential resolutions by source",
	},
	[]string{"exchange", "source"},
)

// OperationsPreparedTotal - подготовленные пакеты операций по источнику баланса
var OperationsPreparedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradekeys",
		Name:      "operations_prepared_total",
		Help:      "Operation bundles prepared, by balance source",
	},
	[]string{"exchange", "balance_source"},
)

// OperationsRejectedTotal - операции, отклоненные политикой
var OperationsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradekeys",
		Name:      "operations_rejected_total",
		Help:      "Operations rejected by policy",
	},
	[]string{"exchange"},
)

// CredentialValidationsTotal - результаты проверки ключей на бирже
var CredentialValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradekeys",
		Name:      "credential_validations_total",
		Help:      "Credential validations against exchanges, by outcome",
	},
	[]string{"exchange", "outcome"},
)
