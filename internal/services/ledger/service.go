package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	store    repositories.DataStore
	index    IdempotencyIndex
	resolver RecipientResolver
	config   Config
	metrics  MetricsCollector
}

// NewService creates a new ledger service
func NewService(
	store repositories.DataStore,
	index IdempotencyIndex,
	resolver RecipientResolver,
	config Config,
	metrics MetricsCollector,
) Service {
	if store == nil {
		panic("store is required")
	}
	if index == nil {
		panic("idempotency index is required")
	}
	if resolver == nil {
		panic("recipient resolver is required")
	}

	if config.MaxTransactionAmount.IsZero() {
		config.MaxTransactionAmount = decimal.NewFromInt(DefaultMaxAmount)
	}
	if config.IdempotencyTTL == 0 {
		config.IdempotencyTTL = DefaultIdempotencyTTL
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		store:    store,
		index:    index,
		resolver: resolver,
		config:   config,
		metrics:  metrics,
	}
}

func (s *service) Credit(ctx context.Context, walletID uint, req OperationRequest) (*OperationResult, error) {
	return s.apply(ctx, walletID, models.TransactionTypeCredit, req)
}

func (s *service) Debit(ctx context.Context, walletID uint, req OperationRequest) (*OperationResult, error) {
	return s.apply(ctx, walletID, models.TransactionTypeDebit, req)
}

func (s *service) GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	wallet, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return wallet.Balance, nil
}

// apply runs a single-wallet credit or debit as one atomic unit: locked
// read, durable idempotency re-check, balance math, wallet save plus ledger
// row. Any failure inside rolls back everything.
func (s *service) apply(ctx context.Context, walletID uint, txType string, req OperationRequest) (*OperationResult, error) {
	amount, err := s.normalizeAmount(req.Amount)
	if err != nil {
		s.metrics.RecordError(txType, "invalid_amount")
		return nil, err
	}
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	// Idempotency fast path.
	if replayed, err := s.replayOperation(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if replayed != nil {
		s.metrics.RecordDuplicate(txType)
		return replayed, nil
	}

	var result *OperationResult
	err = s.store.ExecuteInTransaction(ctx, func(ds repositories.DataStore) error {
		wallet, err := ds.Wallets().GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		// Re-check under the lock. A cache miss is not proof of absence;
		// the unique key in the log is.
		if existing, err := ds.Transactions().GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
			result = recordedOperationResult(existing)
			return nil
		} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return err
		}

		previous := wallet.Balance
		if txType == models.TransactionTypeDebit {
			if wallet.Balance.LessThan(amount) {
				return ErrInsufficientBalance
			}
			wallet.Balance = wallet.Balance.Sub(amount)
		} else {
			wallet.Balance = wallet.Balance.Add(amount)
		}

		if err := ds.Wallets().Save(ctx, wallet); err != nil {
			return err
		}

		row := &models.Transaction{
			WalletID:       wallet.ID,
			Type:           txType,
			Amount:         amount,
			BalanceAfter:   wallet.Balance,
			Reference:      newReference(txType),
			IdempotencyKey: req.IdempotencyKey,
			Status:         models.TransactionStatusCompleted,
			Description:    req.Description,
			Metadata: models.JSON{
				models.MetaPreviousBalance: previous.String(),
			},
		}
		if err := ds.Transactions().Create(ctx, row); err != nil {
			return err
		}

		result = &OperationResult{
			Status:      StatusSuccess,
			Transaction: row,
			Balance:     wallet.Balance,
		}
		return nil
	})
	if err != nil {
		// Lost the insert race on the unique key: the unit rolled back, the
		// other submission's row is the result.
		if errors.Is(err, repositories.ErrDuplicateIdempotencyKey) {
			if replayed, rerr := s.replayOperation(ctx, req.IdempotencyKey); rerr == nil && replayed != nil {
				s.metrics.RecordDuplicate(txType)
				return replayed, nil
			}
		}
		s.metrics.RecordError(txType, errType(err))
		return nil, s.translate(err)
	}

	if result.Status == StatusDuplicate {
		s.metrics.RecordDuplicate(txType)
		return result, nil
	}

	s.recordKey(ctx, req.IdempotencyKey, result.Transaction.ID)
	s.metrics.RecordTransaction(txType, amount)
	return result, nil
}

// replayOperation returns the recorded result for a key, or nil when the key
// has not been seen. Cache errors and misses fall through to the durable log.
func (s *service) replayOperation(ctx context.Context, key string) (*OperationResult, error) {
	row, err := s.lookupRecorded(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return recordedOperationResult(row), nil
}

// lookupRecorded resolves an idempotency key to its transaction row, cache
// first, durable log second.
func (s *service) lookupRecorded(ctx context.Context, key string) (*models.Transaction, error) {
	if txID, ok, err := s.index.Get(ctx, key); err == nil && ok {
		row, err := s.store.Transactions().GetByID(ctx, txID)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, err
		}
		// stale cache entry, fall through to the log
	} else if err != nil {
		log.Printf("idempotency cache lookup failed for %q: %v", key, err)
	}

	row, err := s.store.Transactions().GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

// recordKey stores the key→transaction mapping in the cache tier. Failures
// only cost a future fast path, so they are logged and swallowed.
func (s *service) recordKey(ctx context.Context, key string, txID uint) {
	if err := s.index.Put(ctx, key, txID, s.config.IdempotencyTTL); err != nil {
		log.Printf("failed to record idempotency key %q: %v", key, err)
	}
}

// recordedOperationResult rebuilds the original response from a ledger row.
// BalanceAfter is the snapshot taken when the row was applied, so a replay
// returns exactly what the first submission returned.
func recordedOperationResult(row *models.Transaction) *OperationResult {
	return &OperationResult{
		Status:      StatusDuplicate,
		Transaction: row,
		Balance:     row.BalanceAfter,
	}
}

// normalizeAmount truncates to 2 decimal places (the column scale) and
// validates the result against the configured ceiling.
func (s *service) normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Truncate(2)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.GreaterThan(s.config.MaxTransactionAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount exceeds maximum of %s", ErrInvalidAmount, s.config.MaxTransactionAmount)
	}
	return amount, nil
}

// translate maps repository failures onto the service error taxonomy.
// Ledger sentinels pass through untouched.
func (s *service) translate(err error) error {
	switch {
	case errors.Is(err, repositories.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repositories.ErrLockTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return ErrConcurrencyConflict
	default:
		return err
	}
}

func errType(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, repositories.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, repositories.ErrWalletNotFound):
		return "wallet_not_found"
	default:
		return "storage"
	}
}

func newReference(txType string) string {
	prefix := "CRD"
	if txType == models.TransactionTypeDebit {
		prefix = "DBT"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

func newTransferReference() string {
	return fmt.Sprintf("TRF-%s", uuid.New().String())
}
