package service

import (
	"context"
	"errors"
	"strings"

	"tradekeys/internal/models"
	"tradekeys/internal/repository"
	"tradekeys/pkg/utils"
)

// BlacklistService управляет черным списком символов.
//
// В отличие от заметок пользователя, запись черного списка блокирует
// подготовку операций: OperationPolicy проверяет ее до обращения к бирже.
//
// Отвечает за:
// - Добавление символа для одной биржи или для всех (пустая биржа)
// - Получение списка
// - Удаление записи
type BlacklistService struct {
	blacklistRepo BlacklistRepositoryInterface
	registry      ExchangeRegistry
}

// NewBlacklistService создает новый экземпляр BlacklistService.
func NewBlacklistService(blacklistRepo BlacklistRepositoryInterface, registry ExchangeRegistry) *BlacklistService {
	return &BlacklistService{
		blacklistRepo: blacklistRepo,
		registry:      registry,
	}
}

// Add добавляет символ в черный список.
//
// Параметры:
// - exchange: биржа; пустая строка - запрет на всех биржах
// - symbol: торговый символ (BTCUSDT, BTC-USDT), приводится к виду BTCUSDT
// - reason: причина (опционально)
//
// Возвращает:
// - *ValidationError при неверном символе или неизвестной бирже
// - ErrAlreadyBlacklisted, если запись уже есть
func (s *BlacklistService) Add(ctx context.Context, exchangeName, symbol, reason string) (*models.BlacklistEntry, error) {
	exchangeName = utils.NormalizeExchange(exchangeName)

	verr := &ValidationError{}
	if err := utils.ValidateSymbol(strings.TrimSpace(symbol)); err != nil {
		verr.add("symbol", "%v", err)
	}
	if exchangeName != "" && s.registry != nil && !s.registry.Has(exchangeName) {
		verr.add("exchange", "unsupported exchange %q", exchangeName)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	entry := &models.BlacklistEntry{
		Exchange: exchangeName,
		Symbol:   utils.NormalizeSymbol(symbol),
		Reason:   strings.TrimSpace(reason),
	}

	if err := s.blacklistRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrBlacklistEntryExists) {
			return nil, ErrAlreadyBlacklisted
		}
		return nil, err
	}

	utils.L().WithComponent("blacklist").Info("symbol blacklisted",
		utils.Symbol(entry.Symbol),
		utils.Exchange(entry.Exchange),
		utils.String("reason", entry.Reason),
	)
	return entry, nil
}

// List возвращает весь черный список (пустой срез вместо nil)
func (s *BlacklistService) List(ctx context.Context) ([]*models.BlacklistEntry, error) {
	entries, err := s.blacklistRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*models.BlacklistEntry{}
	}

	return entries, nil
}

// Remove удаляет запись; ErrNotBlacklisted, если ее нет
func (s *BlacklistService) Remove(ctx context.Context, exchangeName, symbol string) error {
	err := s.blacklistRepo.Delete(ctx, utils.NormalizeExchange(exchangeName), utils.NormalizeSymbol(symbol))
	if err != nil {
		if errors.Is(err, repository.ErrBlacklistEntryNotFound) {
			return ErrNotBlacklisted
		}
		return err
	}
	return nil
}

// IsBlacklisted - символ запрещен на бирже (своей записью или глобальной)
func (s *BlacklistService) IsBlacklisted(ctx context.Context, exchangeName, symbol string) (bool, error) {
	return s.blacklistRepo.Exists(ctx, utils.NormalizeExchange(exchangeName), utils.NormalizeSymbol(symbol))
}
