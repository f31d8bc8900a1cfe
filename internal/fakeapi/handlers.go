package fakeapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count("login")
	loginType := chi.URLParam(r, "loginType")
	if !validLoginType(loginType) {
		http.NotFound(w, r)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	key := strings.ToLower(req.Email)
	acct, ok := s.accounts[key]
	// Admin login is for admins only; the editor endpoint takes anyone.
	if !ok || (loginType == "admin" && !acct.IsAdmin) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}

	if now.Before(acct.lockedUntil) {
		remaining := int(math.Ceil(acct.lockedUntil.Sub(now).Seconds()))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"success":          false,
			"locked":           true,
			"lockout_duration": remaining,
			"message":          fmt.Sprintf("Account locked. Try again in %d seconds.", remaining),
		})
		return
	}

	if acct.Password != req.Password {
		acct.failures++
		if acct.failures >= s.maxAttempts {
			acct.failures = 0
			acct.lockedUntil = now.Add(s.lockoutDuration)
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success":          false,
				"locked":           true,
				"lockout_duration": int(s.lockoutDuration.Seconds()),
				"message":          "Too many failed attempts",
			})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success":            false,
			"message":            "Invalid credentials",
			"remaining_attempts": s.maxAttempts - acct.failures,
		})
		return
	}

	acct.failures = 0
	code := s.newOTP()
	s.otps[key] = pendingOTP{code: code, loginType: loginType, expiresAt: now.Add(s.otpTTL)}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"message":            "OTP sent to your email",
		"email":              acct.Email,
		"expires_in_minutes": int(math.Ceil(s.otpTTL.Minutes())),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.count("verify")
	loginType := chi.URLParam(r, "loginType")
	if !validLoginType(loginType) {
		http.NotFound(w, r)
		return
	}
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(req.Email)
	pending, ok := s.otps[key]
	if !ok || pending.loginType != loginType {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "OTP does not exist. Please log in again."})
		return
	}
	if !s.now().Before(pending.expiresAt) {
		delete(s.otps, key)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "OTP has expired. Please log in again."})
		return
	}
	if pending.code != req.OTP {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid OTP"})
		return
	}
	delete(s.otps, key)

	acct := s.accounts[key]
	token, err := s.issueTokenLocked(acct.Account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user": map[string]any{
			"id":       acct.ID,
			"email":    acct.Email,
			"username": acct.Username,
			"is_admin": acct.IsAdmin,
		},
	})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	s.count("probe")
	s.mu.Lock()
	forced := s.probeStatus
	s.mu.Unlock()
	if forced != 0 {
		writeJSON(w, forced, map[string]any{"message": http.StatusText(forced)})
		return
	}
	claims, status := s.authenticate(r)
	if status != http.StatusOK {
		writeJSON(w, status, map[string]any{"message": http.StatusText(status)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       claims.UserID,
		"email":    claims.Email,
		"is_admin": claims.IsAdmin,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.count("list")
	claims, status := s.authenticate(r)
	if status != http.StatusOK {
		writeJSON(w, status, map[string]any{"message": http.StatusText(status)})
		return
	}
	section := chi.URLParam(r, "section")
	if section == "editors" && !claims.IsAdmin {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Admin access required"})
		return
	}
	s.mu.Lock()
	items, ok := s.sections[section]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown section"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}
