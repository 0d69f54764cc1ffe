package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"tradekeys/internal/api"
	"tradekeys/internal/config"
	"tradekeys/internal/exchange"
	"tradekeys/internal/repository"
	"tradekeys/internal/service"
	"tradekeys/pkg/crypto"
	"tradekeys/pkg/ratelimit"
	"tradekeys/pkg/retry"
	"tradekeys/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		Development: cfg.Logging.Development,
	})
	defer func() { _ = utils.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", utils.Err(err))
		_ = utils.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return err
		}
	}

	masterKey, err := crypto.ParseMasterKey(cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	codec, err := crypto.NewCodec(masterKey)
	if err != nil {
		return fmt.Errorf("failed to create secret codec: %w", err)
	}

	// Клиенты бирж: общий пул соединений и лимиты запросов на биржу
	httpClient := exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())
	defer httpClient.Close()

	registry := exchange.NewDefaultRegistry(exchange.Options{
		HTTPClient: httpClient,
		Limiter: ratelimit.NewRegistry(ratelimit.Limits{
			Rate:  cfg.Exchange.RateLimit,
			Burst: cfg.Exchange.RateBurst,
		}),
		Timeout: cfg.Exchange.RequestTimeout,
	})

	// Инициализация репозиториев
	credentialRepo := repository.NewCredentialRepository(db)
	paramsRepo := repository.NewTradingParamsRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)

	// Инициализация сервисов
	paramsService := service.NewParamsService(paramsRepo, registry)
	credentialService := service.NewCredentialService(credentialRepo, codec, registry, paramsService)
	blacklistService := service.NewBlacklistService(blacklistRepo, registry)

	pool := service.NewSystemCredentialPool(systemCredentialSets(cfg))
	resolver := service.NewCredentialResolver(credentialService, pool)
	policy := service.NewOperationPolicy(registry, blacklistRepo, cfg.Trading.AllowedSymbols)
	operationService := service.NewOperationService(paramsService, policy, resolver, registry, cfg.Trading.FallbackAssumedBalance)

	logger.Info("exchange clients ready",
		utils.Strings("exchanges", registry.Names()),
		utils.Strings("system_credentials", pool.Exchanges()),
		utils.Duration("request_timeout", cfg.Exchange.RequestTimeout),
	)

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		CredentialService: credentialService,
		ParamsService:     paramsService,
		OperationService:  operationService,
		BlacklistService:  blacklistService,
		AdminTokenHash:    cfg.Security.AdminTokenHash,
		AllowedOrigins:    cfg.Server.CORSAllowedOrigins,
		Health: func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
	})

	// HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", utils.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// initDatabase создает подключение к базе данных.
// Ping повторяется с backoff, пока БД не начнет принимать соединения.
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 8
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		utils.L().WithComponent("db").Warn("database ping failed, retrying",
			utils.Int("attempt", attempt),
			utils.Duration("delay", delay),
			utils.Err(err),
		)
	}

	err = retry.Do(context.Background(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}, retryCfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// systemCredentialSets переводит операторские ключи из конфигурации в формат пула
func systemCredentialSets(cfg *config.Config) map[string]service.SystemCredentialSet {
	sets := make(map[string]service.SystemCredentialSet, len(cfg.SystemCredentials))
	for name, set := range cfg.SystemCredentials {
		sets[name] = service.SystemCredentialSet{
			Mainnet: systemCredential(set.Mainnet),
			Testnet: systemCredential(set.Testnet),
		}
	}
	return sets
}

func systemCredential(c *config.APICredential) *service.SystemCredential {
	if c == nil {
		return nil
	}
	return &service.SystemCredential{APIKey: c.APIKey, Secret: c.Secret, Passphrase: c.Passphrase}
}
