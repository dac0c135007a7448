// Package zkformat re-encodes the proof backend's raw Groth16 output into the
// field-element layout the on-chain pairing verifier expects. It is a pure
// structural transform: no cryptographic validation happens here.
package zkformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/zkp-id-api/internal/domain"
)

// ErrFormat is returned for malformed backend output. The adapter never
// fabricates a result from input it cannot fully interpret.
var ErrFormat = errors.New("zkformat: malformed proof output")

// Adapt converts a raw proof into the retrieval payload: the untouched raw
// proof, the normalized public signals, and the on-chain layout.
//
// pi_a and pi_c keep their coordinate order. pi_b coordinate pairs are
// SWAPPED: the proving library and the verifier disagree on the
// extension-field basis ordering, and omitting the swap produces a proof that
// fails on-chain verification despite being mathematically correct.
func Adapt(raw *domain.RawProof) (*domain.ZKP, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil proof", ErrFormat)
	}
	a, err := point(raw.PiA, "pi_a")
	if err != nil {
		return nil, err
	}
	c, err := point(raw.PiC, "pi_c")
	if err != nil {
		return nil, err
	}
	b, err := swapPairs(raw.PiB)
	if err != nil {
		return nil, err
	}
	signals, err := NormalizeSignals(raw.PublicSignals)
	if err != nil {
		return nil, err
	}
	return &domain.ZKP{
		Proof:  raw,
		Public: signals,
		Onchain: &domain.OnchainProof{
			A:             a,
			B:             b,
			C:             c,
			PublicSignals: signals,
		},
	}, nil
}

// point takes the two affine coordinates of a single-curve point, decimal
// encoded, order preserved. The backend appends a projective tail the
// verifier has no use for.
func point(coords []string, name string) ([]string, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least 2 coordinates, got %d", ErrFormat, name, len(coords))
	}
	out := make([]string, 2)
	for i := 0; i < 2; i++ {
		d, err := decimal(coords[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %s", ErrFormat, name, i, coords[i])
		}
		out[i] = d
	}
	return out, nil
}

// swapPairs reverses the two components of each pi_b coordinate pair before
// decimal conversion. Self-inverse on the coordinate order.
func swapPairs(b [][]string) ([][]string, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: pi_b needs at least 2 coordinate pairs, got %d", ErrFormat, len(b))
	}
	out := make([][]string, 2)
	for i := 0; i < 2; i++ {
		pair := b[i]
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: pi_b[%d] is not a coordinate pair", ErrFormat, i)
		}
		x, err := decimal(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%w: pi_b[%d][1]: %s", ErrFormat, i, pair[1])
		}
		y, err := decimal(pair[0])
		if err != nil {
			return nil, fmt.Errorf("%w: pi_b[%d][0]: %s", ErrFormat, i, pair[0])
		}
		out[i] = []string{x, y}
	}
	return out, nil
}

// NormalizeSignals accepts either a bare JSON list of signals or a single-key
// object wrapping such a list, and returns the ordered decimal strings.
func NormalizeSignals(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing public signals", ErrFormat)
	}
	var list []json.Number
	if err := decodeNumbers(raw, &list); err != nil {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped) != 1 {
			return nil, fmt.Errorf("%w: public signals are neither a list nor a single-key mapping", ErrFormat)
		}
		for _, inner := range wrapped {
			if err := decodeNumbers(inner, &list); err != nil {
				return nil, fmt.Errorf("%w: wrapped public signals are not a list", ErrFormat)
			}
		}
	}
	out := make([]string, len(list))
	for i, n := range list {
		d, err := decimal(n.String())
		if err != nil {
			return nil, fmt.Errorf("%w: public signal %d: %s", ErrFormat, i, n.String())
		}
		out[i] = d
	}
	return out, nil
}

// decodeNumbers unmarshals a JSON list whose elements may be numbers or
// numeric strings.
func decodeNumbers(raw json.RawMessage, out *[]json.Number) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return err
	}
	nums := make([]json.Number, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case json.Number:
			nums[i] = v
		case string:
			nums[i] = json.Number(v)
		default:
			return fmt.Errorf("element %d is not numeric", i)
		}
	}
	*out = nums
	return nil
}

// decimal parses a decimal or 0x-hex big integer and renders it in decimal.
func decimal(s string) (string, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return "", fmt.Errorf("not a big integer: %q", s)
	}
	return n.String(), nil
}
