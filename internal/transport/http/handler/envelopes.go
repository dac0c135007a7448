package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zkp-id-api/internal/domain"
)

// Every response carries a "status" discriminator so clients can branch
// without inspecting HTTP codes.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OTPEnvelope wraps successful credential validations.
type OTPEnvelope struct {
	Status string `json:"status"`
	OTP    string `json:"otp"`
}

// ZKPEnvelope wraps the one-time proof payload.
type ZKPEnvelope struct {
	Status string      `json:"status"`
	ZKP    *domain.ZKP `json:"zkp"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Status: statusError, Message: msg})
}
