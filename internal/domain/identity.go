package domain

import "time"

// IdentityRecord is a registered identity as persisted. Every personal field
// is stored as onion ciphertext (base64), never plaintext. UserKey is the
// deterministic blind index of the plaintext user_id and doubles as the
// partition key; EncUserID is the randomized ciphertext of the same value,
// verified against the query at read time.
type IdentityRecord struct {
	UserKey       string    `json:"-" dynamodbav:"user_key"`
	EncUserID     string    `json:"-" dynamodbav:"enc_user_id"`
	EncName       string    `json:"-" dynamodbav:"enc_name"`
	EncDOB        string    `json:"-" dynamodbav:"enc_dob"`
	EncCountry    string    `json:"-" dynamodbav:"enc_country"`
	EncCredential string    `json:"-" dynamodbav:"enc_credential_id"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	DOB          string `json:"dob" validate:"required"` // expected format: YYYY-MM-DD
	Country      string `json:"country" validate:"required"`
	CredentialID string `json:"credential_id" validate:"required"`
}

type ValidateRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	CredentialID string `json:"credential_id" validate:"required"`
}

type RetrieveRequest struct {
	UserID string `json:"user_id" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}
