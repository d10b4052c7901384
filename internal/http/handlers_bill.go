package http

import (
	"net/http"

	"finshare/internal/services"
)

type billRequest struct {
	Name         string `json:"name"`
	Total        string `json:"total"`
	Participants []struct {
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
	} `json:"participants"`
}

type billResponse struct {
	Bill    billView         `json:"bill"`
	Members []billMemberView `json:"members"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	total, err := parseAmount(req.Total)
	if err != nil {
		writeError(w, r, err)
		return
	}
	participants := make([]services.BillParticipant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, services.BillParticipant{
			UserID: p.UserID,
			Name:   sanitizeInput(p.Name),
		})
	}

	bill, members, err := s.svc.Bills.CreateBill(r.Context(), uid, sanitizeInput(req.Name), total, participants)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]billMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewBillMember(m))
	}
	writeJSON(w, http.StatusCreated, billResponse{Bill: viewBill(bill), Members: views})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	bills, err := s.svc.Bills.ListBills(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]billView, 0, len(bills))
	for _, b := range bills {
		views = append(views, viewBill(b))
	}
	page, pageSize := s.pageParams(r)
	respondList(w, views, page, pageSize)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.actor(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill, members, err := s.svc.Bills.GetBill(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]billMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewBillMember(m))
	}
	writeJSON(w, http.StatusOK, billResponse{Bill: viewBill(bill), Members: views})
}

type paidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleMarkBillPaid(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	billID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Bills.MarkPaid(r.Context(), billID, memberID, uid, req.Paid); err != nil {
		writeError(w, r, err)
		return
	}

	bill, members, err := s.svc.Bills.GetBill(r.Context(), billID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]billMemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewBillMember(m))
	}
	writeJSON(w, http.StatusOK, billResponse{Bill: viewBill(bill), Members: views})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Bills.DeleteBill(r.Context(), id, uid); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
