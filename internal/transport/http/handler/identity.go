package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zkp-id-api/internal/application/issuance"
	"github.com/zkp-id-api/internal/domain"
)

// IdentityHandler handles the proof issuance workflow endpoints.
type IdentityHandler struct {
	svc issuance.Service
}

func NewIdentityHandler(svc issuance.Service) *IdentityHandler {
	return &IdentityHandler{svc: svc}
}

func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Register(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Status:  statusSuccess,
		Message: "user registered successfully",
	})
}

func (h *IdentityHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, err := h.svc.Validate(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPEnvelope{Status: statusSuccess, OTP: code})
}

func (h *IdentityHandler) GetZKP(w http.ResponseWriter, r *http.Request) {
	var req domain.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	zkp, err := h.svc.Retrieve(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ZKPEnvelope{Status: statusSuccess, ZKP: zkp})
}
