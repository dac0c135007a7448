package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zkp-id-api/internal/domain"
)

// --- mock ---

type mockIssuanceSvc struct{ mock.Mock }

func (m *mockIssuanceSvc) Register(ctx context.Context, req domain.RegisterRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockIssuanceSvc) Validate(ctx context.Context, req domain.ValidateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockIssuanceSvc) Retrieve(ctx context.Context, req domain.RetrieveRequest) (*domain.ZKP, error) {
	args := m.Called(ctx, req)
	if z, _ := args.Get(0).(*domain.ZKP); z != nil {
		return z, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func doJSON(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

// --- register ---

func TestRegisterHandler(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil)
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.Register, `{"user_id":"u1","name":"Alice","dob":"1990-01-01","country":"US","credential_id":"abc"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "user registered successfully", out["message"])
}

func TestRegisterHandlerBadBody(t *testing.T) {
	svc := &mockIssuanceSvc{}
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.Register, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", out["status"])
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterHandlerValidationError(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Register", mock.Anything, mock.Anything).
		Return(fmt.Errorf("missing fields: %w", domain.ErrBadRequest))
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.Register, `{"user_id":"u1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", out["status"])
}

// --- validate ---

func TestValidateHandler(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Validate", mock.Anything, domain.ValidateRequest{UserID: "u1", CredentialID: "abc"}).
		Return("123456", nil)
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.Validate, `{"user_id":"u1","credential_id":"abc"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "123456", out["otp"])
}

func TestValidateHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown user", fmt.Errorf("identity not found: %w", domain.ErrNotFound), http.StatusNotFound},
		{"credential mismatch", fmt.Errorf("credential mismatch: %w", domain.ErrForbidden), http.StatusForbidden},
		{"backend down", fmt.Errorf("%w: prover exited", domain.ErrBackend), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockIssuanceSvc{}
			svc.On("Validate", mock.Anything, mock.Anything).Return("", tc.err)
			h := NewIdentityHandler(svc)

			rec, out := doJSON(t, h.Validate, `{"user_id":"u1","credential_id":"abc"}`)

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, "error", out["status"])
		})
	}
}

func TestValidateHandlerHidesInternalDetail(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Validate", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("dynamo endpoint 10.0.0.5 unreachable"))
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.Validate, `{"user_id":"u1","credential_id":"abc"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(out["message"].(string), "10.0.0.5"))
}

// --- get_zkp ---

func TestGetZKPHandler(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Retrieve", mock.Anything, domain.RetrieveRequest{UserID: "u1", OTP: "123456"}).
		Return(&domain.ZKP{Public: []string{"7"}}, nil)
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.GetZKP, `{"user_id":"u1","otp":"123456"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	zkp, ok := out["zkp"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"7"}, zkp["public"])
}

func TestGetZKPHandlerInvalidOTP(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Retrieve", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("invalid otp: %w", domain.ErrUnauthorized))
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.GetZKP, `{"user_id":"u1","otp":"000000"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "error", out["status"])
}

func TestGetZKPHandlerAlreadyRetrieved(t *testing.T) {
	svc := &mockIssuanceSvc{}
	svc.On("Retrieve", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("no proof found: %w", domain.ErrNotFound))
	h := NewIdentityHandler(svc)

	rec, out := doJSON(t, h.GetZKP, `{"user_id":"u1","otp":"123456"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", out["status"])
}
