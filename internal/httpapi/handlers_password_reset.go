package httpapi

import (
	"net/http"
	"time"
)

type passwordResetRequestRequest struct {
	Login string `json:"login"`
}

// The endpoint answers 204 whether or not the login matched a user, so
// it cannot be used to probe for accounts.
func (a *api) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	ip := clientIP(r)
	if !a.loginLimiter.Allow("reset:"+ip, time.Now()) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	if err := a.passwordResetSvc.RequestReset(r.Context(), req.Login); err != nil {
		a.logger.Error("password reset request failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *api) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.passwordResetSvc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
