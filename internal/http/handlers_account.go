package http

import (
	"context"
	"log/slog"
	"net/http"

	"finshare/internal/core"
)

type accountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	BankName       string `json:"bank_name"`
	BankNumber     string `json:"bank_number"`
	Color          string `json:"color"`
	InitialBalance string `json:"initial_balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account := core.Account{
		OwnerID:    uid,
		Name:       sanitizeInput(req.Name),
		Type:       core.AccountType(req.Type),
		BankName:   sanitizeInput(req.BankName),
		BankNumber: sanitizeInput(req.BankNumber),
		Color:      sanitizeInput(req.Color),
	}
	if req.InitialBalance != "" {
		amount, err := parseAmount(req.InitialBalance)
		if err != nil {
			writeError(w, r, err)
			return
		}
		account.Balance = amount
	}

	created, err := s.svc.Accounts.CreateAccount(r.Context(), account)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Account created",
		"account_id", created.ID,
		"user_id", uid,
		"type", created.Type)
	writeJSON(w, http.StatusCreated, viewAccount(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	accounts, err := s.svc.Accounts.ListAccounts(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, viewAccount(a))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.svc.Accounts.GetAccount(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	existing, err := s.svc.Accounts.GetAccount(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	existing.Name = sanitizeInput(req.Name)
	existing.BankName = sanitizeInput(req.BankName)
	existing.BankNumber = sanitizeInput(req.BankNumber)
	existing.Color = sanitizeInput(req.Color)
	if req.Type != "" {
		existing.Type = core.AccountType(req.Type)
	}

	if err := s.svc.Accounts.UpdateAccount(r.Context(), uid, existing); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(existing))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Accounts.DeleteAccount(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type amountRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleAccountMovement(w, r, s.svc.Accounts.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleAccountMovement(w, r, s.svc.Accounts.Withdraw)
}

func (s *Server) handleAccountMovement(
	w http.ResponseWriter,
	r *http.Request,
	move func(ctx context.Context, accountID, actorID int64, amount core.Money, note string) (core.AccountTransaction, error),
) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := move(r.Context(), id, uid, amount, sanitizeInput(req.Note))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAccountTxn(txn))
}

type transferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Note          string `json:"note"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transfer, err := s.svc.Accounts.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, uid, amount, sanitizeInput(req.Note))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewTransfer(transfer))
}

type joinRequest struct {
	ShareCode string `json:"share_code"`
}

func (s *Server) handleJoinAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	member, err := s.svc.Accounts.JoinByShareCode(r.Context(), sanitizeInput(req.ShareCode), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAccountMember(member))
}

func (s *Server) handleListAccountMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := s.svc.Accounts.ListMembers(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]accountMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewAccountMember(m))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

type memberUpdateRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (s *Server) handleUpdateAccountMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req memberUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	perms := make([]core.Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, core.Permission(p))
	}
	member := core.AccountMember{
		AccountID:   accountID,
		UserID:      userID,
		Role:        core.MemberRole(req.Role),
		Permissions: perms,
	}
	if err := s.svc.Accounts.UpdateMember(r.Context(), uid, member); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccountMember(member))
}

func (s *Server) handleRemoveAccountMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Accounts.RemoveMember(r.Context(), accountID, userID, uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txns, err := s.svc.Accounts.ListAccountTransactions(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]accountTxnView, 0, len(txns))
	for _, t := range txns {
		views = append(views, viewAccountTxn(t))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleListAccountTransfers(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	transfers, err := s.svc.Accounts.ListTransfers(r.Context(), id, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]transferView, 0, len(transfers))
	for _, t := range transfers {
		views = append(views, viewTransfer(t))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}
