package models

// Session is the caller-held record of an authenticated account. It is
// returned from Login and must be threaded into every subsequent operation;
// there is no ambient logged-in state anywhere in the service.
//
// Account is a cached copy and can go stale relative to the store. The service
// refreshes it after operations that mutate the persisted balance out of band
// (most importantly a successful transfer).
type Session struct {
	ID      string   `json:"session_id"`
	Account *Account `json:"account"`
}
