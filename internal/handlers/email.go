package handlers

import (
	"encoding/json"
	"net/http"

	"guardian-backend/internal/notify"
)

type EmailHandler struct {
	email *notify.EmailService
}

func NewEmailHandler(email *notify.EmailService) *EmailHandler {
	return &EmailHandler{email: email}
}

// Test sends a test email so parents can verify their SMTP setup before
// relying on alert delivery.
func (h *EmailHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"email": "email is required"}, r))
		return
	}

	if err := h.email.SendTestEmail(req.Email); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("EMAIL_FAILED", "Failed to send test email", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Test email sent"})
}
