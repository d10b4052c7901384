package http

import (
	"net/http"

	"finshare/internal/core"
)

type goalRequest struct {
	Name            string `json:"name"`
	TargetAmount    string `json:"target_amount"`
	TargetDate      string `json:"target_date"`
	LinkedAccountID *int64 `json:"linked_account_id"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := parseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal := core.SharedGoal{
		CreatorID:       uid,
		Name:            sanitizeInput(req.Name),
		TargetAmount:    target,
		LinkedAccountID: req.LinkedAccountID,
	}
	if req.TargetDate != "" {
		date, err := parseDay(req.TargetDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		goal.TargetDate = date
	}

	created, err := s.svc.Goals.CreateGoal(r.Context(), goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewGoal(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	goals, err := s.svc.Goals.ListGoals(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, viewGoal(g))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.svc.Goals.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewGoal(goal))
}

func (s *Server) handleJoinGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	member, err := s.svc.Goals.JoinByShareCode(r.Context(), sanitizeInput(req.ShareCode), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewGoalMember(member))
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
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

	contribution, err := s.svc.Goals.Contribute(r.Context(), id, uid, amount, sanitizeInput(req.Note))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewContribution(contribution))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	contributions, err := s.svc.Goals.ListContributions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]contributionView, 0, len(contributions))
	for _, c := range contributions {
		views = append(views, viewContribution(c))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleListGoalMembers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := s.svc.Goals.ListMembers(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]goalMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewGoalMember(m))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

type inviteRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleInviteGoalMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, errBadBody)
		return
	}
	member, err := s.svc.Goals.InviteMember(r.Context(), id, uid, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewGoalMember(member))
}

func (s *Server) handleCancelGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Goals.CancelGoal(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.svc.Goals.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewGoal(goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Goals.DeleteGoal(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
