package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alovak/bankledger/ledger/models"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Repository is the account store. With a nil db it keeps accounts in an
// in-memory map behind a mutex; otherwise it runs against Postgres. Both
// backends enforce account-number uniqueness and the guarded transfer
// semantics.
//
// Expected schema for the db backend:
//
//	CREATE TABLE ledger.accounts (
//	    account_number text PRIMARY KEY,
//	    name           text NOT NULL,
//	    secret         text NOT NULL,
//	    balance        numeric(18,2) NOT NULL CHECK (balance >= 0)
//	);
//
// UpdateBalance and UpdateProfile are unconditional overwrites
// (last-writer-wins); only AtomicTransfer carries the guarded, all-or-nothing
// consistency guarantee.
type Repository struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account

	db *sql.DB
}

func NewRepository() *Repository {
	return &Repository{accounts: make(map[string]*models.Account)}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(account *models.Account) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.accounts[account.AccountNumber]; ok {
			return fmt.Errorf("account %s: %w", account.AccountNumber, models.ErrDuplicateAccount)
		}
		cp := *account
		r.accounts[account.AccountNumber] = &cp
		return nil
	}
	_, err := r.db.ExecContext(context.Background(), `
		INSERT INTO ledger.accounts(account_number, name, secret, balance)
		VALUES ($1,$2,$3,$4)
	`, account.AccountNumber, account.Name, account.Secret, account.Balance)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", account.AccountNumber, models.ErrDuplicateAccount)
	}
	return storeErr(err)
}

// FindByCredentials returns the account matching both fields exactly. The
// secret comparison is verbatim.
func (r *Repository) FindByCredentials(accountNumber, secret string) (*models.Account, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		a, ok := r.accounts[accountNumber]
		if !ok || a.Secret != secret {
			return nil, models.ErrNotFound
		}
		cp := *a
		return &cp, nil
	}
	row := r.db.QueryRowContext(context.Background(), `
		SELECT account_number, name, secret, balance FROM ledger.accounts
		 WHERE account_number=$1 AND secret=$2
	`, accountNumber, secret)
	return scanAccount(row)
}

func (r *Repository) FindByAccountNumber(accountNumber string) (*models.Account, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		a, ok := r.accounts[accountNumber]
		if !ok {
			return nil, models.ErrNotFound
		}
		cp := *a
		return &cp, nil
	}
	row := r.db.QueryRowContext(context.Background(), `
		SELECT account_number, name, secret, balance FROM ledger.accounts WHERE account_number=$1
	`, accountNumber)
	return scanAccount(row)
}

// ListAll returns a snapshot of every account, ordered by account number. The
// returned accounts are copies; mutating them does not touch the store.
func (r *Repository) ListAll() ([]*models.Account, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*models.Account, 0, len(r.accounts))
		for _, a := range r.accounts {
			cp := *a
			out = append(out, &cp)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
		return out, nil
	}
	rows, err := r.db.QueryContext(context.Background(), `
		SELECT account_number, name, secret, balance FROM ledger.accounts ORDER BY account_number
	`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []*models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.AccountNumber, &a.Name, &a.Secret, &a.Balance); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, &a)
	}
	return out, storeErr(rows.Err())
}

// UpdateBalance overwrites the balance unconditionally. Last-writer-wins: it
// carries no precondition, so concurrent read-modify-write callers can lose
// updates. Transfers must go through AtomicTransfer instead.
func (r *Repository) UpdateBalance(accountNumber string, newBalance decimal.Decimal) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		a, ok := r.accounts[accountNumber]
		if !ok {
			return fmt.Errorf("account %s: %w", accountNumber, models.ErrNotFound)
		}
		a.Balance = newBalance
		return nil
	}
	res, err := r.db.ExecContext(context.Background(), `
		UPDATE ledger.accounts SET balance=$2 WHERE account_number=$1
	`, accountNumber, newBalance)
	if err != nil {
		return storeErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("account %s: %w", accountNumber, models.ErrNotFound)
	}
	return nil
}

// UpdateProfile overwrites name and secret unconditionally.
func (r *Repository) UpdateProfile(accountNumber, newName, newSecret string) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		a, ok := r.accounts[accountNumber]
		if !ok {
			return fmt.Errorf("account %s: %w", accountNumber, models.ErrNotFound)
		}
		a.Name = newName
		a.Secret = newSecret
		return nil
	}
	res, err := r.db.ExecContext(context.Background(), `
		UPDATE ledger.accounts SET name=$2, secret=$3 WHERE account_number=$1
	`, accountNumber, newName, newSecret)
	if err != nil {
		return storeErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("account %s: %w", accountNumber, models.ErrNotFound)
	}
	return nil
}

// Delete removes the account and reports whether a record was actually
// removed. Deleting a missing account is not an error.
func (r *Repository) Delete(accountNumber string) (bool, error) {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.accounts[accountNumber]; !ok {
			return false, nil
		}
		delete(r.accounts, accountNumber)
		return true, nil
	}
	res, err := r.db.ExecContext(context.Background(), `
		DELETE FROM ledger.accounts WHERE account_number=$1
	`, accountNumber)
	if err != nil {
		return false, storeErr(err)
	}
	rows, _ := res.RowsAffected()
	return rows == 1, nil
}

// AtomicTransfer moves amount from one account to another as a single
// all-or-nothing unit. The debit is conditioned on the source holding at
// least amount at write time, which makes the balance check and the deduction
// indivisible; the credit is conditioned on the destination existing. Either
// precondition failing aborts the whole unit with ErrTransferFailed and no
// partial effect.
//
// The caller is expected to validate amount > 0 before getting here.
func (r *Repository) AtomicTransfer(ctx context.Context, fromAccountNumber, toAccountNumber string, amount decimal.Decimal) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		from, ok := r.accounts[fromAccountNumber]
		if !ok || from.Balance.LessThan(amount) {
			return models.ErrTransferFailed
		}
		to, ok := r.accounts[toAccountNumber]
		if !ok {
			return models.ErrTransferFailed
		}
		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()
	// set per-transaction statement timeout to avoid long hangs
	if _, err := tx.ExecContext(ctx, `set local statement_timeout = '3s'`); err != nil {
		return storeErr(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE ledger.accounts
		   SET balance = balance - $2
		 WHERE account_number=$1 AND balance >= $2
	`, fromAccountNumber, amount)
	if err != nil {
		return storeErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrTransferFailed
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE ledger.accounts
		   SET balance = balance + $2
		 WHERE account_number=$1
	`, toAccountNumber, amount)
	if err != nil {
		return storeErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrTransferFailed
	}

	return storeErr(tx.Commit())
}

// Ping returns store readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.AccountNumber, &a.Name, &a.Secret, &a.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &a, nil
}

// storeErr tags backend failures so callers can tell them apart from domain
// errors.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
