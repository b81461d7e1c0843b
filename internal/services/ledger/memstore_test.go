package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory DataStore with row-level locking and error
// injection. Each transactional unit buffers its writes and takes a
// per-wallet mutex on GetForUpdate, so concurrent units block on each
// other exactly where row locks would block in postgres. Buffered writes
// are applied on commit and discarded when fn fails.
type memStore struct {
	mu sync.Mutex

	users   map[uint]*models.User
	wallets map[uint]*models.Wallet
	txs     map[uint]*models.Transaction
	byKey   map[string]uint

	// rowLocks holds one mutex per wallet row, created on first lock.
	rowLocks map[uint]*sync.Mutex

	nextWalletID uint
	nextTxID     uint

	// lockSeq records every acquired GetForUpdate lock in order.
	lockSeq []uint
	// lockErr injects a failure for a specific wallet id.
	lockErr map[uint]error
	// failCreateAt fails the Nth Transactions().Create call (1-based).
	failCreateAt int
	createCalls  int
}

var errInjected = errors.New("injected storage failure")

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint]*models.User),
		wallets:  make(map[uint]*models.Wallet),
		txs:      make(map[uint]*models.Transaction),
		byKey:    make(map[string]uint),
		rowLocks: make(map[uint]*sync.Mutex),
		lockErr:  make(map[uint]error),
	}
}

// rowLockLocked returns the mutex for a wallet row. Caller holds mu.
func (m *memStore) rowLockLocked(id uint) *sync.Mutex {
	l, ok := m.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.rowLocks[id] = l
	}
	return l
}

func (m *memStore) addWallet(userID uint, balance string) *models.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextWalletID++
	w := &models.Wallet{
		ID:       m.nextWalletID,
		UserID:   userID,
		Address:  fmt.Sprintf("WAL%07d", m.nextWalletID),
		Balance:  decimal.RequireFromString(balance),
		Currency: "NGN",
	}
	m.wallets[w.ID] = w
	return copyWallet(w)
}

func (m *memStore) balance(walletID uint) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[walletID].Balance
}

func (m *memStore) txCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// totalBalance sums every wallet, used for conservation checks.
func (m *memStore) totalBalance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, w := range m.wallets {
		total = total.Add(w.Balance)
	}
	return total
}

func (m *memStore) Users() repositories.UserRepository               { return &memUserRepo{s: m} }
func (m *memStore) Wallets() repositories.WalletRepository           { return &memWalletRepo{s: m} }
func (m *memStore) Transactions() repositories.TransactionRepository { return &memTxRepo{s: m} }

func (m *memStore) ExecuteInTransaction(ctx context.Context, fn func(repositories.DataStore) error) error {
	txn := &memTxn{
		s:       m,
		wallets: make(map[uint]*models.Wallet),
		txs:     make(map[uint]*models.Transaction),
		byKey:   make(map[string]uint),
	}
	err := fn(txn)
	if err == nil {
		m.mu.Lock()
		for id, w := range txn.wallets {
			m.wallets[id] = w
		}
		for id, tx := range txn.txs {
			m.txs[id] = tx
		}
		for k, id := range txn.byKey {
			m.byKey[k] = id
		}
		m.mu.Unlock()
	}
	// Row locks are held until commit or rollback, like FOR UPDATE.
	for i := len(txn.held) - 1; i >= 0; i-- {
		txn.held[i].Unlock()
	}
	return err
}

// memTxn is a single in-flight transactional unit. Writes land in the
// pending maps and reads see pending state first, then committed state.
type memTxn struct {
	s       *memStore
	wallets map[uint]*models.Wallet
	txs     map[uint]*models.Transaction
	byKey   map[string]uint
	held    []*sync.Mutex
}

func (t *memTxn) Users() repositories.UserRepository               { return &memUserRepo{s: t.s} }
func (t *memTxn) Wallets() repositories.WalletRepository           { return &txnWalletRepo{t: t} }
func (t *memTxn) Transactions() repositories.TransactionRepository { return &txnTxRepo{t: t} }

func (t *memTxn) ExecuteInTransaction(ctx context.Context, fn func(repositories.DataStore) error) error {
	return fn(t)
}

type txnWalletRepo struct{ t *memTxn }

func (r *txnWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	return (&memWalletRepo{s: r.t.s}).Create(ctx, wallet)
}

func (r *txnWalletRepo) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	if w, ok := r.t.wallets[id]; ok {
		return copyWallet(w), nil
	}
	return (&memWalletRepo{s: r.t.s}).GetByID(ctx, id)
}

func (r *txnWalletRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return (&memWalletRepo{s: r.t.s}).GetByUserID(ctx, userID)
}

func (r *txnWalletRepo) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return (&memWalletRepo{s: r.t.s}).GetByAddress(ctx, address)
}

func (r *txnWalletRepo) GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	s := r.t.s

	s.mu.Lock()
	if err, ok := s.lockErr[id]; ok {
		s.mu.Unlock()
		return nil, err
	}
	if _, ok := s.wallets[id]; !ok {
		s.mu.Unlock()
		return nil, repositories.ErrWalletNotFound
	}
	lock := s.rowLockLocked(id)
	s.mu.Unlock()

	// Blocks until any unit holding this row commits or rolls back.
	lock.Lock()
	r.t.held = append(r.t.held, lock)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockSeq = append(s.lockSeq, id)
	if w, ok := r.t.wallets[id]; ok {
		return copyWallet(w), nil
	}
	return copyWallet(s.wallets[id]), nil
}

func (r *txnWalletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	s := r.t.s
	s.mu.Lock()
	_, committed := s.wallets[wallet.ID]
	s.mu.Unlock()
	if _, pending := r.t.wallets[wallet.ID]; !pending && !committed {
		return repositories.ErrWalletNotFound
	}
	r.t.wallets[wallet.ID] = copyWallet(wallet)
	return nil
}

type txnTxRepo struct{ t *memTxn }

func (r *txnTxRepo) Create(ctx context.Context, tx *models.Transaction) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[tx.IdempotencyKey]; exists {
		return repositories.ErrDuplicateIdempotencyKey
	}
	if _, exists := r.t.byKey[tx.IdempotencyKey]; exists {
		return repositories.ErrDuplicateIdempotencyKey
	}
	s.createCalls++
	if s.failCreateAt != 0 && s.createCalls == s.failCreateAt {
		return errInjected
	}
	s.nextTxID++
	tx.ID = s.nextTxID
	tx.CreatedAt = time.Now()
	r.t.txs[tx.ID] = copyTx(tx)
	r.t.byKey[tx.IdempotencyKey] = tx.ID
	return nil
}

func (r *txnTxRepo) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	if tx, ok := r.t.txs[id]; ok {
		return copyTx(tx), nil
	}
	return (&memTxRepo{s: r.t.s}).GetByID(ctx, id)
}

func (r *txnTxRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	if id, ok := r.t.byKey[key]; ok {
		return copyTx(r.t.txs[id]), nil
	}
	return (&memTxRepo{s: r.t.s}).GetByIdempotencyKey(ctx, key)
}

func (r *txnTxRepo) AttachCounterparty(ctx context.Context, id, counterpartyID uint) error {
	tx, ok := r.t.txs[id]
	if !ok {
		committed, err := (&memTxRepo{s: r.t.s}).GetByID(ctx, id)
		if err != nil {
			return err
		}
		tx = committed
		r.t.txs[id] = tx
	}
	if tx.Metadata == nil {
		tx.Metadata = models.JSON{}
	}
	tx.Metadata[models.MetaCounterpartyTransactionID] = counterpartyID
	return nil
}

func (r *txnTxRepo) List(ctx context.Context, filter repositories.TransactionFilter, limit, offset int) ([]models.Transaction, int64, error) {
	return (&memTxRepo{s: r.t.s}).List(ctx, filter, limit, offset)
}

func (r *txnTxRepo) TotalByType(ctx context.Context, walletID uint, txType string) (decimal.Decimal, error) {
	return (&memTxRepo{s: r.t.s}).TotalByType(ctx, walletID, txType)
}

func copyWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

func copyTx(tx *models.Transaction) *models.Transaction {
	c := *tx
	if tx.Metadata != nil {
		c.Metadata = make(models.JSON, len(tx.Metadata))
		for k, v := range tx.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

type memWalletRepo struct{ s *memStore }

func (r *memWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.wallets {
		if existing.UserID == wallet.UserID || existing.Address == wallet.Address {
			return repositories.ErrDuplicateWallet
		}
	}
	r.s.nextWalletID++
	wallet.ID = r.s.nextWalletID
	r.s.wallets[wallet.ID] = copyWallet(wallet)
	return nil
}

func (r *memWalletRepo) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return copyWallet(w), nil
}

func (r *memWalletRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			return copyWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *memWalletRepo) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.Address == address {
			return copyWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *memWalletRepo) GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err, ok := r.s.lockErr[id]; ok {
		return nil, err
	}
	r.s.lockSeq = append(r.s.lockSeq, id)
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return copyWallet(w), nil
}

func (r *memWalletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.wallets[wallet.ID]; !ok {
		return repositories.ErrWalletNotFound
	}
	r.s.wallets[wallet.ID] = copyWallet(wallet)
	return nil
}

type memTxRepo struct{ s *memStore }

func (r *memTxRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.byKey[tx.IdempotencyKey]; exists {
		return repositories.ErrDuplicateIdempotencyKey
	}
	r.s.createCalls++
	if r.s.failCreateAt != 0 && r.s.createCalls == r.s.failCreateAt {
		return errInjected
	}
	r.s.nextTxID++
	tx.ID = r.s.nextTxID
	tx.CreatedAt = time.Now()
	r.s.txs[tx.ID] = copyTx(tx)
	r.s.byKey[tx.IdempotencyKey] = tx.ID
	return nil
}

func (r *memTxRepo) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return copyTx(tx), nil
}

func (r *memTxRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byKey[key]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return copyTx(r.s.txs[id]), nil
}

func (r *memTxRepo) AttachCounterparty(ctx context.Context, id, counterpartyID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[id]
	if !ok {
		return repositories.ErrTransactionNotFound
	}
	if tx.Metadata == nil {
		tx.Metadata = models.JSON{}
	}
	tx.Metadata[models.MetaCounterpartyTransactionID] = counterpartyID
	return nil
}

func (r *memTxRepo) List(ctx context.Context, filter repositories.TransactionFilter, limit, offset int) ([]models.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []models.Transaction
	for _, tx := range r.s.txs {
		if filter.WalletID != 0 && tx.WalletID != filter.WalletID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Query != "" && !strings.Contains(tx.Reference, filter.Query) {
			continue
		}
		if !filter.From.IsZero() && tx.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && tx.CreatedAt.After(filter.To) {
			continue
		}
		matched = append(matched, *copyTx(tx))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *memTxRepo) TotalByType(ctx context.Context, walletID uint, txType string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, tx := range r.s.txs {
		if tx.WalletID == walletID && tx.Type == txType && tx.Status == models.TransactionStatusCompleted {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicateUser
		}
	}
	user.ID = uint(len(r.s.users) + 1)
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.VerificationToken == token && token != "" {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *memUserRepo) IncrementTokenVersion(ctx context.Context, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

// memCache implements CacheClient over a plain map with optional failure
// injection, standing in for Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string]uint
	failGet bool
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]uint)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache unavailable")
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*uint)) = v
	return true, nil
}

func (c *memCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache unavailable")
	}
	c.entries[key] = value.(uint)
	return nil
}

// fakeResolver maps identifiers straight to wallets.
type fakeResolver struct {
	wallets map[string]*models.Wallet
	errs    map[string]error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		wallets: make(map[string]*models.Wallet),
		errs:    make(map[string]error),
	}
}

func (r *fakeResolver) Resolve(ctx context.Context, identifier string) (*models.Wallet, error) {
	if err, ok := r.errs[identifier]; ok {
		return nil, err
	}
	w, ok := r.wallets[identifier]
	if !ok {
		return nil, ErrRecipientNotFound
	}
	return w, nil
}
