// Package issuance orchestrates the proof issuance protocol:
// register → validate (credential check, proof generation, OTP mint) →
// retrieve-once (OTP gate, atomic proof take).
package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zkp-id-api/internal/domain"
	"github.com/zkp-id-api/internal/infrastructure/prover"
	"github.com/zkp-id-api/internal/pkg/id"
	"github.com/zkp-id-api/internal/pkg/onion"
	"github.com/zkp-id-api/internal/pkg/otp"
	"github.com/zkp-id-api/internal/pkg/validate"
	"github.com/zkp-id-api/internal/pkg/zkformat"
)

// IdentityStore is the minimal persistence surface for identity records.
type IdentityStore interface {
	Put(ctx context.Context, rec *domain.IdentityRecord) error
	Get(ctx context.Context, userKey string) (*domain.IdentityRecord, error)
}

// ProofStore persists single-use proof records.
type ProofStore interface {
	Put(ctx context.Context, p *domain.ProofRecord) error
	// Take reads and deletes atomically; two concurrent calls cannot both win.
	Take(ctx context.Context, ownerKey string) (*domain.ProofRecord, error)
}

// OTPStore gates proof retrieval.
type OTPStore interface {
	Mint(userID string) (string, error)
	Check(userID, code string) otp.Status
	Consume(userID string)
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	Validate(ctx context.Context, req domain.ValidateRequest) (string, error)
	Retrieve(ctx context.Context, req domain.RetrieveRequest) (*domain.ZKP, error)
}

type ServiceDeps struct {
	Identities IdentityStore
	Proofs     ProofStore
	OTPs       OTPStore
	Prover     prover.Backend
	Cipher     *onion.Cipher
}

type service struct {
	identities IdentityStore
	proofs     ProofStore
	otps       OTPStore
	prover     prover.Backend
	cipher     *onion.Cipher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		identities: deps.Identities,
		proofs:     deps.Proofs,
		otps:       deps.OTPs,
		prover:     deps.Prover,
		cipher:     deps.Cipher,
	}
}

// Register onion-encrypts every field independently and upserts by user id
// (the record's blind-index key). Re-registering overwrites all fields.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	rec := &domain.IdentityRecord{
		UserKey:   s.cipher.Index(req.UserID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var err error
	if rec.EncUserID, err = s.cipher.Encrypt(req.UserID); err != nil {
		return err
	}
	if rec.EncName, err = s.cipher.Encrypt(req.Name); err != nil {
		return err
	}
	if rec.EncDOB, err = s.cipher.Encrypt(req.DOB); err != nil {
		return err
	}
	if rec.EncCountry, err = s.cipher.Encrypt(req.Country); err != nil {
		return err
	}
	if rec.EncCredential, err = s.cipher.Encrypt(req.CredentialID); err != nil {
		return err
	}
	return s.identities.Put(ctx, rec)
}

// Validate checks the credential against the decrypted stored value, runs the
// proof backend, stores the adapted proof, and only then mints the OTP — a
// backend, adapter, or storage failure can never leave an OTP without a
// backing proof.
func (s *service) Validate(ctx context.Context, req domain.ValidateRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	rec, credential, err := s.findByUserID(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	// Exact string match, case-sensitive.
	if credential != req.CredentialID {
		return "", fmt.Errorf("credential mismatch: %w", domain.ErrForbidden)
	}

	raw, err := s.prover.Generate(ctx, prover.Pad(credential))
	if err != nil {
		return "", err
	}
	zkp, err := zkformat.Adapt(raw)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrBackend)
	}
	payload, err := json.Marshal(zkp)
	if err != nil {
		return "", fmt.Errorf("serialize proof: %w", err)
	}

	proofID := id.New()
	if err := s.proofs.Put(ctx, &domain.ProofRecord{
		OwnerKey:  rec.EncUserID,
		ProofID:   proofID,
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	code, err := s.otps.Mint(req.UserID)
	if err != nil {
		return "", err
	}
	slog.Info("proof issued", "proof_id", proofID)
	return code, nil
}

// Retrieve hands out a stored proof exactly once. The OTP entry is consumed
// only when the proof actually leaves the store; a mismatch leaves it intact
// for the legitimate holder.
func (s *service) Retrieve(ctx context.Context, req domain.RetrieveRequest) (*domain.ZKP, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	switch s.otps.Check(req.UserID, req.OTP) {
	case otp.StatusMissing:
		// Never minted, expired, or already redeemed.
		return nil, fmt.Errorf("no proof found: %w", domain.ErrNotFound)
	case otp.StatusMismatched:
		return nil, fmt.Errorf("invalid otp: %w", domain.ErrUnauthorized)
	}

	rec, _, err := s.findByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	p, err := s.proofs.Take(ctx, rec.EncUserID)
	if err != nil {
		return nil, err
	}
	var zkp domain.ZKP
	if err := json.Unmarshal([]byte(p.Payload), &zkp); err != nil {
		return nil, fmt.Errorf("corrupt proof record %s: %v", p.ProofID, err)
	}
	s.otps.Consume(req.UserID)
	return &zkp, nil
}

// findByUserID resolves a user id to its stored record. The blind index
// narrows the candidate row, but the match is confirmed against the decrypted
// user_id ciphertext. An undecryptable row is reported as not-found — callers
// never learn that a row exists but cannot be decrypted.
func (s *service) findByUserID(ctx context.Context, userID string) (*domain.IdentityRecord, string, error) {
	rec, err := s.identities.Get(ctx, s.cipher.Index(userID))
	if err != nil {
		return nil, "", err
	}
	storedID, err := s.cipher.Decrypt(rec.EncUserID)
	if err != nil {
		slog.Warn("undecryptable identity row", "user_key", rec.UserKey, "err", err)
		return nil, "", fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if storedID != userID {
		return nil, "", fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	credential, err := s.cipher.Decrypt(rec.EncCredential)
	if err != nil {
		if errors.Is(err, onion.ErrDecrypt) {
			slog.Warn("undecryptable credential column", "user_key", rec.UserKey, "err", err)
			return nil, "", fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, "", err
	}
	return rec, credential, nil
}
