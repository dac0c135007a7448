// Package prover invokes the external proof backend. The backend is opaque:
// given a fixed-size credential it either produces a Groth16-style proof with
// its public signals, or fails. Nothing here knows about the circuit.
package prover

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/zkp-id-api/internal/config"
	"github.com/zkp-id-api/internal/domain"
)

// CredentialSize is the fixed width of the backend's input.
const CredentialSize = 32

// Backend produces a raw proof for a 32-byte credential.
type Backend interface {
	Generate(ctx context.Context, credential [CredentialSize]byte) (*domain.RawProof, error)
}

// Pad canonicalizes a credential to the backend's fixed width: zero-padded,
// truncated past CredentialSize bytes.
func Pad(credential string) [CredentialSize]byte {
	var out [CredentialSize]byte
	copy(out[:], credential)
	return out
}

// Subprocess runs the configured witness and proving commands. Each call gets
// its own scratch directory so concurrent validations never share files; the
// scripts find the circuit artifacts through the PROVER_DIR variable.
type Subprocess struct {
	artifactsDir string
	witnessCmd   []string
	proveCmd     []string
	timeout      time.Duration
}

func NewSubprocess(cfg *config.Config) *Subprocess {
	return &Subprocess{
		artifactsDir: cfg.ProverDir,
		witnessCmd:   strings.Fields(cfg.WitnessCmd),
		proveCmd:     strings.Fields(cfg.ProveCmd),
		timeout:      cfg.ProverTimeout,
	}
}

// backendOutput is the zkp.json layout: the proof object plus the signal
// vector, which some backend versions emit at the top level and some inside
// the proof.
type backendOutput struct {
	Proof         *domain.RawProof `json:"proof"`
	PublicSignals json.RawMessage  `json:"publicSignals"`
}

// Generate writes input.json, runs the witness then the proving command under
// a bounded timeout, and parses zkp.json. Every failure is terminal for the
// validation attempt — no retry happens here.
func (p *Subprocess) Generate(ctx context.Context, credential [CredentialSize]byte) (*domain.RawProof, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	work, err := os.MkdirTemp("", "prover-*")
	if err != nil {
		return nil, fmt.Errorf("%w: scratch dir: %v", domain.ErrBackend, err)
	}
	defer os.RemoveAll(work)

	// The credential enters the circuit as one field element.
	input, err := json.Marshal(map[string]string{
		"credentialHash": new(big.Int).SetBytes(credential[:]).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode input: %v", domain.ErrBackend, err)
	}
	if err := os.WriteFile(filepath.Join(work, "input.json"), input, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", domain.ErrBackend, err)
	}

	for _, argv := range [][]string{p.witnessCmd, p.proveCmd} {
		if err := p.run(ctx, work, argv); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(filepath.Join(work, "zkp.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: no proof output: %v", domain.ErrBackend, err)
	}
	var out backendOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse proof output: %v", domain.ErrBackend, err)
	}
	raw := out.Proof
	if raw == nil || raw.PiA == nil {
		// Older backends emit the proof fields at the top level.
		raw = &domain.RawProof{}
		if err := json.Unmarshal(data, raw); err != nil {
			return nil, fmt.Errorf("%w: parse proof output: %v", domain.ErrBackend, err)
		}
	}
	if len(out.PublicSignals) > 0 {
		raw.PublicSignals = out.PublicSignals
	}
	return raw, nil
}

func (p *Subprocess) run(ctx context.Context, work string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty command", domain.ErrBackend)
	}
	abs, err := filepath.Abs(p.artifactsDir)
	if err != nil {
		return fmt.Errorf("%w: resolve artifacts dir: %v", domain.ErrBackend, err)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = work
	cmd.Env = append(os.Environ(), "PROVER_DIR="+abs)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s timed out", domain.ErrBackend, argv[0])
		}
		return fmt.Errorf("%w: %s: %v: %s", domain.ErrBackend, argv[0], err, firstLine(out))
	}
	return nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
