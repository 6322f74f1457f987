package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lixi.vn/internal/deck"
	"lixi.vn/internal/token"
)

func (s *Server) adminAuthenticated(r *http.Request, now time.Time) bool {
	if s.env.RequiresSetup() {
		return false
	}
	c, err := r.Cookie(adminSessionCookie)
	if err != nil {
		return false
	}
	return token.Verify(c.Value, s.env.AdminPassword, s.tune.AdminSessionTTL(), now)
}

func (s *Server) handleAdminStatus(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.env.RequiresSetup() {
		writeJSON(rw, http.StatusOK, map[string]any{"requiresSetup": true, "authenticated": false})
		return
	}
	if !s.adminAuthenticated(r, time.Now()) {
		writeJSON(rw, http.StatusOK, map[string]any{"requiresSetup": false, "authenticated": false})
		return
	}
	st, err := s.store.GetState()
	if err != nil {
		s.log.Printf("admin status: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot load deck right now")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"requiresSetup":  false,
		"authenticated":  true,
		"deck":           st.Deck,
		"remainingTotal": st.RemainingTotal(),
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !sameOrigin(r) {
		jsonError(rw, http.StatusForbidden, "invalid request origin")
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if d := s.limiter.Check("admin-login:"+ip, s.tune.AdminLogin.Max, s.tune.AdminLogin.Window(), now); !d.Allowed {
		rw.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSec))
		jsonError(rw, http.StatusTooManyRequests, "too many login attempts, wait a bit")
		return
	}

	if s.env.RequiresSetup() {
		jsonError(rw, http.StatusPreconditionFailed, "admin password is not configured")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(rw, http.StatusBadRequest, "invalid login payload")
		return
	}
	if req.Password == "" {
		jsonError(rw, http.StatusBadRequest, "password is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.env.AdminPassword)) != 1 {
		jsonError(rw, http.StatusUnauthorized, "wrong password")
		return
	}

	http.SetCookie(rw, &http.Cookie{
		Name:     adminSessionCookie,
		Value:    token.Issue(s.env.AdminPassword, now),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.env.Production(),
		MaxAge:   int(s.tune.AdminSessionTTL().Seconds()),
	})
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminLogout(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !sameOrigin(r) {
		jsonError(rw, http.StatusForbidden, "invalid request origin")
		return
	}
	http.SetCookie(rw, &http.Cookie{Name: adminSessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
}

// Admin save payloads may omit remaining; it then defaults to quantity.
type adminDeckItem struct {
	Amount    int64 `json:"amount"`
	Quantity  int   `json:"quantity"`
	Remaining *int  `json:"remaining"`
}

type adminDeckRequest struct {
	Deck []adminDeckItem `json:"deck"`
}

func (s *Server) handleAdminDeck(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.adminDeckGet(rw, r)
	case http.MethodPost:
		s.adminDeckSave(rw, r)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) adminDeckGet(rw http.ResponseWriter, r *http.Request) {
	if s.env.RequiresSetup() {
		jsonError(rw, http.StatusPreconditionFailed, "admin password is not configured")
		return
	}
	if !s.adminAuthenticated(r, time.Now()) {
		jsonError(rw, http.StatusUnauthorized, "admin login required")
		return
	}
	st, err := s.store.GetState()
	if err != nil {
		s.log.Printf("admin deck get: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot load deck right now")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"deck":           st.Deck,
		"remainingTotal": st.RemainingTotal(),
	})
}

func (s *Server) adminDeckSave(rw http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		jsonError(rw, http.StatusForbidden, "invalid request origin")
		return
	}
	if s.env.RequiresSetup() {
		jsonError(rw, http.StatusPreconditionFailed, "admin password is not configured")
		return
	}
	now := time.Now()
	if !s.adminAuthenticated(r, now) {
		jsonError(rw, http.StatusUnauthorized, "admin login required")
		return
	}
	ip := clientIP(r)
	if d := s.limiter.Check("admin-deck:"+ip, s.tune.AdminSave.Max, s.tune.AdminSave.Window(), now); !d.Allowed {
		rw.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSec))
		jsonError(rw, http.StatusTooManyRequests, "saving too fast, try again shortly")
		return
	}

	var req adminDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(rw, http.StatusBadRequest, "invalid deck payload")
		return
	}

	next := deck.State{Deck: make([]deck.Item, 0, len(req.Deck))}
	for _, it := range req.Deck {
		remaining := it.Quantity
		if it.Remaining != nil {
			remaining = *it.Remaining
		}
		next.Deck = append(next.Deck, deck.Item{Amount: it.Amount, Quantity: it.Quantity, Remaining: remaining})
	}

	saved, err := s.store.SaveState(next)
	if err != nil {
		var verr *deck.ValidationError
		if errors.As(err, &verr) {
			jsonError(rw, http.StatusBadRequest, verr.Error())
			return
		}
		s.log.Printf("admin deck save: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot save the deck right now")
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"ok":             true,
		"deck":           saved.Deck,
		"remainingTotal": saved.RemainingTotal(),
	})
	s.publishConfig()
}
