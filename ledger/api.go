package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/alovak/bankledger/ledger/models"
	"github.com/go-chi/chi/v5"
)

// API is the HTTP surface of the ledger service. It plays the caller role in
// the session contract: sessions returned from Login are kept in a registry
// here and threaded into every authenticated service call.
type API struct {
	ledger *Service

	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewAPI(ledger *Service) *API {
	return &API{
		ledger:   ledger,
		sessions: make(map[string]*models.Session),
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", a.createAccount)
		r.Get("/", a.listAccounts)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", a.login)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", a.logout)
			r.Get("/account", a.getAccount)
			r.Post("/deposits", a.deposit)
			r.Post("/withdrawals", a.withdraw)
			r.Post("/transfers", a.transfer)
			r.Put("/profile", a.updateProfile)
			r.Delete("/account", a.deleteAccount)
		})
	})
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	create := models.CreateAccount{}
	err := json.NewDecoder(r.Body).Decode(&create)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := a.ledger.CreateAccount(create)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.ledger.ListAccounts()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(accounts)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	login := models.Login{}
	if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := a.ledger.Login(login.AccountNumber, login.Secret)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "invalid account number or secret", http.StatusUnauthorized)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	a.mu.Lock()
	a.sessions[session.ID] = session
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session.Account)
}

func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	req := models.Deposit{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.ledger.Deposit(session, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session.Account)
}

func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	req := models.Withdraw{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.ledger.Withdraw(session, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session.Account)
}

func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	req := models.Transfer{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.ledger.Transfer(r.Context(), session, req.ToAccountNumber, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session.Account)
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	req := models.UpdateProfile{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.ledger.UpdateProfile(session, req.NewName, req.NewSecret); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(session.Account)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	if err := a.ledger.DeleteAccount(session); err != nil {
		writeError(w, err)
		return
	}

	// Self-deletion logs the caller out.
	a.mu.Lock()
	delete(a.sessions, session.ID)
	a.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) session(r *http.Request) (*models.Session, bool) {
	id := chi.URLParam(r, "sessionID")

	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[id]
	return session, ok
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrDuplicateAccount):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrTransferFailed):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
