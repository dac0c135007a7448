package zkformat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkp-id-api/internal/domain"
)

func sampleRaw() *domain.RawProof {
	return &domain.RawProof{
		PiA:           []string{"11", "22", "1"},
		PiB:           [][]string{{"1", "2"}, {"3", "4"}, {"1", "0"}},
		PiC:           []string{"55", "66", "1"},
		Protocol:      "groth16",
		Curve:         "bn128",
		PublicSignals: json.RawMessage(`["7", "8"]`),
	}
}

func TestAdapt(t *testing.T) {
	zkp, err := Adapt(sampleRaw())
	require.NoError(t, err)

	assert.Equal(t, []string{"11", "22"}, zkp.Onchain.A)
	assert.Equal(t, []string{"55", "66"}, zkp.Onchain.C)
	// Each pi_b coordinate pair has its components swapped.
	assert.Equal(t, [][]string{{"2", "1"}, {"4", "3"}}, zkp.Onchain.B)
	assert.Equal(t, []string{"7", "8"}, zkp.Public)
	assert.Equal(t, zkp.Public, zkp.Onchain.PublicSignals)
	// The raw proof rides along untouched.
	assert.Equal(t, []string{"11", "22", "1"}, zkp.Proof.PiA)
}

func TestSwapIsSelfInverse(t *testing.T) {
	in := [][]string{{"1", "2"}, {"3", "4"}}
	once, err := swapPairs(in)
	require.NoError(t, err)
	twice, err := swapPairs(once)
	require.NoError(t, err)
	assert.Equal(t, in, twice)
}

func TestAdaptHexCoordinates(t *testing.T) {
	raw := sampleRaw()
	raw.PiA = []string{"0xff", "0x10", "1"}
	zkp, err := Adapt(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"255", "16"}, zkp.Onchain.A)
}

func TestNormalizeSignalsListAndMapping(t *testing.T) {
	fromList, err := NormalizeSignals(json.RawMessage(`["1", "2", "3"]`))
	require.NoError(t, err)
	fromMap, err := NormalizeSignals(json.RawMessage(`{"publicSignals": ["1", "2", "3"]}`))
	require.NoError(t, err)
	assert.Equal(t, fromList, fromMap)
	assert.Equal(t, []string{"1", "2", "3"}, fromList)

	// Bare numbers work too.
	fromNumbers, err := NormalizeSignals(json.RawMessage(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.Equal(t, fromList, fromNumbers)
}

func TestAdaptMalformed(t *testing.T) {
	cases := map[string]func(*domain.RawProof){
		"nil signals":      func(r *domain.RawProof) { r.PublicSignals = nil },
		"short pi_a":       func(r *domain.RawProof) { r.PiA = []string{"1"} },
		"short pi_b":       func(r *domain.RawProof) { r.PiB = [][]string{{"1", "2"}} },
		"ragged pi_b":      func(r *domain.RawProof) { r.PiB = [][]string{{"1"}, {"2", "3"}} },
		"non-numeric":      func(r *domain.RawProof) { r.PiC = []string{"banana", "2", "1"} },
		"multi-key map":    func(r *domain.RawProof) { r.PublicSignals = json.RawMessage(`{"a":[],"b":[]}`) },
		"non-list wrapped": func(r *domain.RawProof) { r.PublicSignals = json.RawMessage(`{"signals": "1"}`) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			raw := sampleRaw()
			mutate(raw)
			_, err := Adapt(raw)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := Adapt(nil)
	assert.ErrorIs(t, err, ErrFormat)
}
