package ledger

import (
	"context"
	"errors"
	"fmt"

	"kobo/internal/models"
	"kobo/internal/repositories"
)

// Transfer moves funds between two wallets as one atomic unit: both balance
// updates and both ledger rows commit together or not at all.
func (s *service) Transfer(ctx context.Context, senderWalletID uint, req TransferRequest) (*TransferResult, error) {
	amount, err := s.normalizeAmount(req.Amount)
	if err != nil {
		s.metrics.RecordError("transfer", "invalid_amount")
		return nil, err
	}
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	// Idempotency fast path on the caller's key.
	if replayed, err := s.replayTransfer(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if replayed != nil {
		s.metrics.RecordDuplicate("transfer")
		return replayed, nil
	}

	// Resolve before any lock is taken.
	recipient, err := s.resolver.Resolve(ctx, req.Recipient)
	if err != nil {
		return nil, err
	}
	if recipient.ID == senderWalletID {
		return nil, ErrSameWalletTransfer
	}

	debitKey := req.IdempotencyKey + DebitKeySuffix
	creditKey := req.IdempotencyKey + CreditKeySuffix

	var result *TransferResult
	err = s.store.ExecuteInTransaction(ctx, func(ds repositories.DataStore) error {
		// Lock both rows in ascending wallet-id order. Every transfer over
		// the same pair locks in the same relative order, so opposing
		// transfers cannot form a wait cycle.
		firstID, secondID := senderWalletID, recipient.ID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := ds.Wallets().GetForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := ds.Wallets().GetForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		sender, rcpt := first, second
		if sender.ID != senderWalletID {
			sender, rcpt = second, first
		}

		// Durable re-check under the sender lock.
		if existing, err := ds.Transactions().GetByIdempotencyKey(ctx, debitKey); err == nil {
			result, err = s.recordedTransferResult(ctx, ds.Transactions(), existing)
			return err
		} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return err
		}

		// The balance may have changed since any earlier read.
		if sender.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		senderPrevious := sender.Balance
		recipientPrevious := rcpt.Balance
		sender.Balance = sender.Balance.Sub(amount)
		rcpt.Balance = rcpt.Balance.Add(amount)

		if err := ds.Wallets().Save(ctx, sender); err != nil {
			return err
		}
		if err := ds.Wallets().Save(ctx, rcpt); err != nil {
			return err
		}

		reference := newTransferReference()

		debit := &models.Transaction{
			WalletID:       sender.ID,
			Type:           models.TransactionTypeDebit,
			Amount:         amount,
			BalanceAfter:   sender.Balance,
			Reference:      reference,
			IdempotencyKey: debitKey,
			Status:         models.TransactionStatusCompleted,
			Description:    req.Description,
			Metadata: models.JSON{
				models.MetaCounterpartyWalletID: rcpt.ID,
				models.MetaCounterpartyAddress:  rcpt.Address,
				models.MetaPreviousBalance:      senderPrevious.String(),
			},
		}
		if err := ds.Transactions().Create(ctx, debit); err != nil {
			return err
		}

		credit := &models.Transaction{
			WalletID:       rcpt.ID,
			Type:           models.TransactionTypeCredit,
			Amount:         amount,
			BalanceAfter:   rcpt.Balance,
			Reference:      reference,
			IdempotencyKey: creditKey,
			Status:         models.TransactionStatusCompleted,
			Description:    req.Description,
			Metadata: models.JSON{
				models.MetaCounterpartyWalletID: sender.ID,
				models.MetaCounterpartyAddress:  sender.Address,
				models.MetaPreviousBalance:      recipientPrevious.String(),
			},
		}
		if err := ds.Transactions().Create(ctx, credit); err != nil {
			return err
		}

		// Cross-link the pair now that both ids exist.
		if err := ds.Transactions().AttachCounterparty(ctx, debit.ID, credit.ID); err != nil {
			return err
		}
		if err := ds.Transactions().AttachCounterparty(ctx, credit.ID, debit.ID); err != nil {
			return err
		}
		debit.Metadata[models.MetaCounterpartyTransactionID] = credit.ID
		credit.Metadata[models.MetaCounterpartyTransactionID] = debit.ID

		result = &TransferResult{
			Status:            StatusSuccess,
			DebitTransaction:  debit,
			CreditTransaction: credit,
			SenderBalance:     sender.Balance,
			RecipientBalance:  rcpt.Balance,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdempotencyKey) {
			if replayed, rerr := s.replayTransfer(ctx, req.IdempotencyKey); rerr == nil && replayed != nil {
				s.metrics.RecordDuplicate("transfer")
				return replayed, nil
			}
		}
		s.metrics.RecordError("transfer", errType(err))
		return nil, s.translate(err)
	}

	if result.Status == StatusDuplicate {
		s.metrics.RecordDuplicate("transfer")
		return result, nil
	}

	s.recordKey(ctx, debitKey, result.DebitTransaction.ID)
	s.metrics.RecordTransaction("transfer", amount)
	return result, nil
}

// replayTransfer returns the recorded result for a transfer key, or nil
// when the key has not been seen. Both the cache index and the durable log
// know a transfer by its derived debit key, never by the caller's bare key,
// so the answer is the same whether the cache is warm or cold.
func (s *service) replayTransfer(ctx context.Context, key string) (*TransferResult, error) {
	debit, err := s.lookupRecorded(ctx, key+DebitKeySuffix)
	if err != nil || debit == nil {
		return nil, err
	}
	return s.recordedTransferResult(ctx, s.store.Transactions(), debit)
}

// recordedTransferResult rebuilds the original transfer response from its
// debit row, following the metadata cross-link to the credit side.
func (s *service) recordedTransferResult(ctx context.Context, txs repositories.TransactionRepository, debit *models.Transaction) (*TransferResult, error) {
	creditID := debit.CounterpartyTransactionID()
	if creditID == 0 {
		return nil, fmt.Errorf("transfer %d has no counterparty link", debit.ID)
	}
	credit, err := txs.GetByID(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("failed to load counterparty transaction: %w", err)
	}
	return &TransferResult{
		Status:            StatusDuplicate,
		DebitTransaction:  debit,
		CreditTransaction: credit,
		SenderBalance:     debit.BalanceAfter,
		RecipientBalance:  credit.BalanceAfter,
	}, nil
}
