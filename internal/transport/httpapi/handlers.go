package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lixi.vn/internal/deck"
	"lixi.vn/internal/token"
)

func (s *Server) handleConfig(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg, err := s.store.PublicConfig()
	if err != nil {
		s.log.Printf("config: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot load deck right now")
		return
	}
	rw.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	writeJSON(rw, http.StatusOK, cfg)
}

type drawRequest struct {
	Continue bool `json:"continue"`
}

type drawResponse struct {
	OK             bool  `json:"ok"`
	Amount         int64 `json:"amount"`
	RemainingTotal int   `json:"remainingTotal"`
}

func (s *Server) handleDraw(rw http.ResponseWriter, r *http.Request) {
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
	if d := s.limiter.Check("draw:"+ip, s.tune.Draw.Max, s.tune.Draw.Window(), now); !d.Allowed {
		s.drawsRateLimited.Add(1)
		rw.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSec))
		jsonError(rw, http.StatusTooManyRequests, "too many draws, slow down")
		return
	}

	// Absent or malformed bodies mean a plain first draw.
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = drawRequest{}
	}

	secret := s.env.LockSecret()
	if !req.Continue {
		if c, err := r.Cookie(drawLockCookie); err == nil &&
			token.Verify(c.Value, secret, s.tune.DrawLockTTL(), now) {
			s.drawsLocked.Add(1)
			jsonError(rw, http.StatusTooManyRequests, "you already drew an envelope recently")
			return
		}
	}

	res, err := s.store.Draw()
	if err != nil {
		s.log.Printf("draw: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot draw right now")
		return
	}
	if res.Exhausted {
		s.drawsExhausted.Add(1)
		writeJSON(rw, http.StatusConflict, map[string]any{
			"exhausted":      true,
			"remainingTotal": 0,
			"error":          "no envelopes left, come back later",
		})
		return
	}

	s.draws.Add(1)
	if !req.Continue {
		http.SetCookie(rw, &http.Cookie{
			Name:     drawLockCookie,
			Value:    token.Issue(secret, now),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   s.env.Production(),
			MaxAge:   int(s.tune.DrawLockTTL().Seconds()),
		})
	}
	writeJSON(rw, http.StatusOK, drawResponse{OK: true, Amount: res.Amount, RemainingTotal: res.RemainingTotal})
	s.publishConfig()
}

type depositRequest struct {
	Amount   int64 `json:"amount"`
	Quantity int   `json:"quantity"`
}

func (s *Server) handleDeposit(rw http.ResponseWriter, r *http.Request) {
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
	if d := s.limiter.Check("deposit:"+ip, s.tune.Deposit.Max, s.tune.Deposit.Window(), now); !d.Allowed {
		rw.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSec))
		jsonError(rw, http.StatusTooManyRequests, "too many deposits, slow down")
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(rw, http.StatusBadRequest, "invalid deposit payload")
		return
	}

	res, err := s.store.AddInventory(req.Amount, req.Quantity)
	if err != nil {
		var verr *deck.ValidationError
		if errors.As(err, &verr) {
			jsonError(rw, http.StatusBadRequest, verr.Error())
			return
		}
		s.log.Printf("deposit: %v", err)
		jsonError(rw, http.StatusInternalServerError, "cannot update the deck right now")
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"ok":             true,
		"added":          req,
		"remainingTotal": res.RemainingTotal,
		"deck":           res.Deck.Public().Deck,
	})
	s.publishConfig()
}
