// Package transaction exposes read-only views over the ledger: filtered
// history pages and per-wallet credit/debit totals.
package transaction

import (
	"context"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
)

// Filter narrows a history query. Zero values mean "no filter".
type Filter struct {
	Query string
	Type  string
	From  time.Time
	To    time.Time
}

// Summary holds the lifetime totals for a wallet, completed entries only.
type Summary struct {
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// Service defines the transaction history interface
type Service interface {
	History(ctx context.Context, walletID uint, filter Filter, limit, offset int) ([]models.Transaction, int64, error)
	Summarize(ctx context.Context, walletID uint) (*Summary, error)
	GetByID(ctx context.Context, walletID, txID uint) (*models.Transaction, error)
}

type service struct {
	repo repositories.TransactionRepository
}

// NewService creates a new transaction history service
func NewService(repo repositories.TransactionRepository) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo}
}

func (s *service) History(ctx context.Context, walletID uint, filter Filter, limit, offset int) ([]models.Transaction, int64, error) {
	items, total, err := s.repo.List(ctx, repositories.TransactionFilter{
		WalletID: walletID,
		Query:    filter.Query,
		Type:     filter.Type,
		From:     filter.From,
		To:       filter.To,
	}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return items, total, nil
}

func (s *service) Summarize(ctx context.Context, walletID uint) (*Summary, error) {
	totalIn, err := s.repo.TotalByType(ctx, walletID, models.TransactionTypeCredit)
	if err != nil {
		return nil, fmt.Errorf("failed to total credits: %w", err)
	}
	totalOut, err := s.repo.TotalByType(ctx, walletID, models.TransactionTypeDebit)
	if err != nil {
		return nil, fmt.Errorf("failed to total debits: %w", err)
	}
	return &Summary{TotalIn: totalIn, TotalOut: totalOut}, nil
}

// GetByID loads a single entry and verifies it belongs to the given wallet
// so one user cannot read another's ledger rows by id.
func (s *service) GetByID(ctx context.Context, walletID, txID uint) (*models.Transaction, error) {
	tx, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.WalletID != walletID {
		return nil, repositories.ErrTransactionNotFound
	}
	return tx, nil
}
