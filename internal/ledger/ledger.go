// Package ledger maintains the coin balance and its append-only
// transaction log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/store"
	"github.com/google/uuid"
)

// ErrInvalidAmount is returned when an earn or spend amount is not positive.
var ErrInvalidAmount = errors.New("amount must be positive")

// Service owns the wallet: every balance change goes through an appended
// ledger entry, so the balance is always the sum of the log.
type Service struct {
	repo store.Repository
}

// NewService creates a ledger service backed by the given repository.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// AddCoins credits the wallet. It always succeeds for a positive amount.
func (s *Service) AddCoins(ctx context.Context, userID string, amount int64, reason string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	stored, err := s.repo.AppendLedgerEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add coins: %w", err)
	}

	slog.Info("Coins added", "user_id", userID, "amount", amount, "reason", reason, "balance", stored.Balance)
	return stored, nil
}

// SpendCoins debits the wallet. A balance smaller than amount yields a
// declined result with the balance untouched; that is an expected outcome,
// not an error.
func (s *Service) SpendCoins(ctx context.Context, userID string, amount int64, reason string) (domain.SpendResult, error) {
	if amount <= 0 {
		return domain.SpendResult{}, ErrInvalidAmount
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    -amount,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	stored, err := s.repo.AppendLedgerEntry(ctx, entry)
	if errors.Is(err, store.ErrInsufficientFunds) {
		balance, balErr := s.repo.LedgerBalance(ctx, userID)
		if balErr != nil {
			return domain.SpendResult{}, fmt.Errorf("balance after declined spend: %w", balErr)
		}
		slog.Info("Spend declined", "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
		return domain.SpendResult{Accepted: false, Balance: balance}, nil
	}
	if err != nil {
		return domain.SpendResult{}, fmt.Errorf("spend coins: %w", err)
	}

	slog.Info("Coins spent", "user_id", userID, "amount", amount, "reason", reason, "balance", stored.Balance)
	return domain.SpendResult{Accepted: true, Balance: stored.Balance}, nil
}

// Balance returns the current coin balance.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repo.LedgerBalance(ctx, userID)
}

// History returns the most recent ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*domain.LedgerEntry, error) {
	return s.repo.LedgerHistory(ctx, userID, limit)
}
