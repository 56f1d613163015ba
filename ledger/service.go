package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/alovak/bankledger/internal/metrics"
	"github.com/alovak/bankledger/ledger/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service holds the business rules layered on the account store: credential
// verification, deposit/withdraw validation and the transfer protocol.
// Authenticated state lives in the *models.Session returned from Login and is
// threaded into every operation by the caller; the service keeps no ambient
// logged-in state.
type Service struct {
	repo      *Repository
	cfg       *Config
	collector *metrics.Collector
}

func NewService(repo *Repository, cfg *Config, collector *metrics.Collector) *Service {
	return &Service{
		repo:      repo,
		cfg:       cfg,
		collector: collector,
	}
}

// CreateAccount persists a new account. A negative initial balance would
// break the non-negativity invariant before the account ever exists, so it is
// rejected up front.
func (s *Service) CreateAccount(req models.CreateAccount) (*models.Account, error) {
	if req.InitialBalance.Sign() < 0 {
		return nil, models.ErrInvalidAmount
	}

	account := &models.Account{
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		Secret:        req.Secret,
		Balance:       req.InitialBalance,
	}

	err := s.repo.Create(account)
	s.collector.RecordOperation("create_account", err)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return account, nil
}

// Login verifies the credentials against the store and returns a fresh
// session holding a copy of the account. On failure no session exists.
func (s *Service) Login(accountNumber, secret string) (*models.Session, error) {
	account, err := s.repo.FindByCredentials(accountNumber, secret)
	s.collector.RecordOperation("login", err)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return &models.Session{
		ID:      uuid.New().String(),
		Account: account,
	}, nil
}

func (s *Service) ListAccounts() ([]*models.Account, error) {
	accounts, err := s.repo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	return accounts, nil
}

// Deposit adds amount to the session's balance and persists the new value.
// This is a read-modify-write without a store-side guard: two sessions
// depositing into the same account concurrently can lose an update. That
// matches the documented last-writer-wins contract of UpdateBalance; only the
// transfer path carries the guarded treatment.
func (s *Service) Deposit(session *models.Session, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}

	newBalance := session.Account.Balance.Add(amount)
	err := s.repo.UpdateBalance(session.Account.AccountNumber, newBalance)
	s.collector.RecordOperation("deposit", err)
	if err != nil {
		return fmt.Errorf("depositing: %w", err)
	}

	session.Account.Balance = newBalance
	return nil
}

// Withdraw subtracts amount from the session's balance and persists the new
// value. Amounts that are non-positive or exceed the cached balance are
// rejected before the store is touched. Same concurrency caveat as Deposit.
func (s *Service) Withdraw(session *models.Session, amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(session.Account.Balance) {
		return models.ErrInvalidAmount
	}

	newBalance := session.Account.Balance.Sub(amount)
	err := s.repo.UpdateBalance(session.Account.AccountNumber, newBalance)
	s.collector.RecordOperation("withdraw", err)
	if err != nil {
		return fmt.Errorf("withdrawing: %w", err)
	}

	session.Account.Balance = newBalance
	return nil
}

// Transfer moves amount from the session's account to toAccountNumber through
// the store's atomic unit. A transfer to the same account would debit and
// credit the same row and is refused. After a successful commit the cached
// account is stale, so it is re-fetched from the store rather than patched in
// place.
func (s *Service) Transfer(ctx context.Context, session *models.Session, toAccountNumber string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if toAccountNumber == session.Account.AccountNumber {
		return fmt.Errorf("destination is the source account: %w", models.ErrTransferFailed)
	}

	start := time.Now()
	err := s.repo.AtomicTransfer(ctx, session.Account.AccountNumber, toAccountNumber, amount)
	s.collector.RecordOperation("transfer", err)
	s.collector.ObserveTransfer(time.Since(start))
	if err != nil {
		return fmt.Errorf("transferring: %w", err)
	}

	account, err := s.repo.FindByAccountNumber(session.Account.AccountNumber)
	if err != nil {
		return fmt.Errorf("refreshing account after transfer: %w", err)
	}
	session.Account = account

	return nil
}

// UpdateProfile overwrites the account's name and secret. Input shape
// validation belongs to the caller.
func (s *Service) UpdateProfile(session *models.Session, newName, newSecret string) error {
	err := s.repo.UpdateProfile(session.Account.AccountNumber, newName, newSecret)
	s.collector.RecordOperation("update_profile", err)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	session.Account.Name = newName
	session.Account.Secret = newSecret
	return nil
}

// DeleteAccount removes the session's account from the store. On success the
// caller must drop the session (the account no longer exists). If the record
// was already gone the session was stale and NotFound is reported.
func (s *Service) DeleteAccount(session *models.Session) error {
	removed, err := s.repo.Delete(session.Account.AccountNumber)
	s.collector.RecordOperation("delete_account", err)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if !removed {
		return fmt.Errorf("account %s: %w", session.Account.AccountNumber, models.ErrNotFound)
	}

	return nil
}
