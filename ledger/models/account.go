package models

import "github.com/shopspring/decimal"

// Account is a ledger entry keyed by its account number. The account number is
// the natural primary key and never changes after creation. Balances are exact
// decimals; they are never allowed to go negative.
//
// The secret is stored and compared verbatim. Hashing it would change the
// stored-data shape and the login contract, so the gap is kept visible here
// instead of being papered over.
type Account struct {
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	Secret        string          `json:"-"`
	Balance       decimal.Decimal `json:"balance"`
}

type CreateAccount struct {
	AccountNumber  string          `json:"account_number"`
	Name           string          `json:"name"`
	Secret         string          `json:"secret"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type Login struct {
	AccountNumber string `json:"account_number"`
	Secret        string `json:"secret"`
}

type Deposit struct {
	Amount decimal.Decimal `json:"amount"`
}

type Withdraw struct {
	Amount decimal.Decimal `json:"amount"`
}

type Transfer struct {
	ToAccountNumber string          `json:"to_account_number"`
	Amount          decimal.Decimal `json:"amount"`
}

type UpdateProfile struct {
	NewName   string `json:"new_name"`
	NewSecret string `json:"new_secret"`
}
