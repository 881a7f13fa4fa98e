package http

import (
	"context"
	"errors"
	"net/http"

	"bujit/internal/core"
	"bujit/internal/ledger"
	"bujit/internal/log"
	"bujit/internal/validate"
)

// writeError maps an operation error to a status and a user-facing message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := validate.As(err); ok {
		FieldError(r, ve.Field, ve.Message).Write(w, r)
		return
	}

	status := http.StatusInternalServerError
	message := ledger.UserMessage(err)
	switch {
	case errors.Is(err, core.ErrEmptyName):
		FieldError(r, labelName, labelName+" is required").Write(w, r)
		return
	case errors.Is(err, core.ErrInvalidPercent):
		FieldError(r, labelPercent, labelPercent+" must be between 0 and 100").Write(w, r)
		return
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Ledger request failed", log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Ledger request rejected", log.FieldError, err)
	}
	ErrorResponse(r, status, message).Write(w, r)
}

// writeAccounts answers a mutation with the refreshed account list.
func (s *Server) writeAccounts(w http.ResponseWriter, r *http.Request, status int, created *core.Account) {
	body := newAccountsBody(s.ledger.Accounts())
	if created != nil {
		v := newAccountView(created, false)
		body.Account = &v
	}
	NewJSONResponse().Status(status).Body(body).Write(w, r)
}

// parseBody reads the request body or answers 400.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Malformed request body", log.FieldError, err)
		ErrorResponse(r, http.StatusBadRequest, "The request body could not be read.").Write(w, r)
		return nil, false
	}
	return p, true
}

// accountFromPath resolves {id} or answers 404.
func (s *Server) accountFromPath(w http.ResponseWriter, r *http.Request) (*core.Account, bool) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(r, http.StatusNotFound, ledger.UserMessage(ledger.ErrAccountNotFound)).Write(w, r)
		return nil, false
	}
	acc, err := s.ledger.Account(id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return acc, true
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Loaded() {
		s.writeError(w, r, ledger.ErrNotLoaded)
		return
	}
	NewJSONResponse().Body(newAccountsBody(s.ledger.Accounts())).Write(w, r)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(newAccountView(acc, true)).Write(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	txs, err := s.ledger.History(acc.ID().Int64())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(historyBody{
		AccountID:    acc.ID().Int64(),
		Capacity:     core.HistoryCapacity,
		Transactions: newTransactionViews(txs),
	}).Write(w, r)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := parseCreateAccount(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	acc, err := s.ledger.CreateAccount(ctx, in.Name, in.Balance, in.Percent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusCreated, acc)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	name, percent, err := parseUpdateAccount(p, acc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.RenameOrReweight(ctx, acc.ID().Int64(), name, percent); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.DeleteAccount(ctx, acc.ID().Int64()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := parseMovement(p, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.Deposit(ctx, acc.ID().Int64(), in.Amount, in.Label); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := parseMovement(p, acc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.Withdraw(ctx, acc.ID().Int64(), in.Amount, in.Label); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	from, to, err := parseTransferAccounts(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	source, err := s.ledger.Account(from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.ledger.Account(to); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseTransferAmount(p, source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.Transfer(ctx, from, to, amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}

func (s *Server) handlePayout(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	total, err := parsePayout(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.operationContext(r)
	defer cancel()
	if err := s.ledger.Payout(ctx, total); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccounts(w, r, http.StatusOK, nil)
}
