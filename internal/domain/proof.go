package domain

import (
	"encoding/json"
	"time"
)

// RawProof is the proof backend's output as emitted: three Groth16 curve-point
// groups plus the public-signal vector. Coordinates arrive as big-integer
// strings (decimal or 0x-hex); PublicSignals may be a bare JSON list or a
// single-key object wrapping one.
type RawProof struct {
	PiA           []string        `json:"pi_a"`
	PiB           [][]string      `json:"pi_b"`
	PiC           []string        `json:"pi_c"`
	Protocol      string          `json:"protocol,omitempty"`
	Curve         string          `json:"curve,omitempty"`
	PublicSignals json.RawMessage `json:"publicSignals"`
}

// OnchainProof is the field-element layout the on-chain pairing verifier
// expects: decimal strings, with pi_b coordinate pairs swapped.
type OnchainProof struct {
	A             []string   `json:"a"`
	B             [][]string `json:"b"`
	C             []string   `json:"c"`
	PublicSignals []string   `json:"publicSignals"`
}

// ZKP is the payload handed back to the caller of /get_zkp.
type ZKP struct {
	Proof   *RawProof     `json:"proof"`
	Public  []string      `json:"public"`
	Onchain *OnchainProof `json:"onchain_proof"`
}

// ProofRecord is a single-use proof artifact pending retrieval. OwnerKey is
// the stored (encrypted) user identity; at most one unconsumed record exists
// per owner — a new validation overwrites any pending one.
type ProofRecord struct {
	OwnerKey  string    `dynamodbav:"owner_key"`
	ProofID   string    `dynamodbav:"proof_id"`
	Payload   string    `dynamodbav:"payload"` // serialized ZKP (JSON)
	CreatedAt time.Time `dynamodbav:"created_at"`
}
