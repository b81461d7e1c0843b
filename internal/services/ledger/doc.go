/*
Package ledger is the engine that applies balance-changing operations to
wallets. It owns the locking discipline, the idempotency protocol and the
error taxonomy; everything else in the application is glue around it.

Operations:

	// Credit a wallet
	res, err := svc.Credit(ctx, walletID, ledger.OperationRequest{
	    Amount:         decimal.NewFromFloat(500.00),
	    IdempotencyKey: "client-key-1",
	})

	// Debit a wallet (fails with ErrInsufficientBalance, no writes)
	res, err = svc.Debit(ctx, walletID, ledger.OperationRequest{...})

	// Transfer to another wallet by address or email
	out, err := svc.Transfer(ctx, senderWalletID, ledger.TransferRequest{
	    Recipient:      "WAL0001234",
	    Amount:         decimal.NewFromFloat(300.00),
	    IdempotencyKey: "client-key-2",
	})

Guarantees:

  - An idempotency key is applied at most once. Resubmitting a key returns
    the originally recorded result with Status "duplicate"; the resubmitted
    amount is not compared against the original.
  - A debit never takes a balance below zero.
  - A transfer's debit and credit either both commit or neither does. The
    two rows share one reference and are cross-linked through metadata.
  - Concurrent transfers over the same wallet pair lock rows in ascending
    wallet-id order, so opposite-direction transfers cannot deadlock.
  - A lock-wait timeout surfaces as ErrConcurrencyConflict and is safe to
    retry with the same idempotency key.

All amounts are exact decimals truncated to 2 fractional digits on entry.
*/
package ledger
