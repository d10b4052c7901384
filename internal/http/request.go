package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finshare/internal/core"
)

// maxBodySize bounds request bodies so a client cannot feed the JSON
// decoder forever.
const maxBodySize = 1 << 20

const userIDHeader = "X-User-ID"

var (
	errBadBody      = errors.New("invalid request body")
	errBadID        = errors.New("invalid id")
	errUnauthorized = errors.New("missing or invalid " + userIDHeader + " header")
)

// actor resolves the acting user from the X-User-ID header. A missing
// or malformed header ends the request with 401.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeErrorStatus(w, http.StatusUnauthorized, errUnauthorized)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// pathID parses the named path segment as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// pageParams reads page and page_size from the query, clamping the
// size into [1, max].
func (s *Server) pageParams(r *http.Request) (page, pageSize int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(r, "page_size", s.cfg.DefaultPageSize)
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	return page, pageSize
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryInt64(r *http.Request, name string) int64 {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseAmount converts a decimal baht string from a request into Money.
func parseAmount(s string) (core.Money, error) {
	satang, err := core.ParseDecimalToSatang(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Satang: satang}, nil
}

// parseDay parses a YYYY-MM-DD value, midnight UTC.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", errBadBody)
	}
	return t, nil
}

// sanitizeInput trims whitespace and strips control characters that
// have no business in names or notes.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
