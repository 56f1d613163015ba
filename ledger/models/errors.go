package models

import "fmt"

var (
	// ErrInvalidAmount covers non-positive amounts and withdrawals that exceed
	// the balance. Detected before the store is touched; safe to re-prompt.
	ErrInvalidAmount = fmt.Errorf("invalid amount")

	// ErrNotFound means the referenced account number does not exist, or the
	// credentials did not match any record.
	ErrNotFound = fmt.Errorf("not found")

	// ErrDuplicateAccount means the account number is already taken.
	ErrDuplicateAccount = fmt.Errorf("account number already exists")

	// ErrTransferFailed means a precondition failed inside the atomic unit
	// (insufficient funds or missing destination). The unit is fully rolled
	// back before this is reported; the transfer is safe to retry.
	ErrTransferFailed = fmt.Errorf("transfer failed")

	// ErrStoreUnavailable tags persistence failures (connectivity, I/O). Any
	// atomic unit in flight is rolled back on this path as well.
	ErrStoreUnavailable = fmt.Errorf("store unavailable")
)
