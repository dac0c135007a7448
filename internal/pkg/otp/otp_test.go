package otp

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintCheckConsume(t *testing.T) {
	s := New(5 * time.Minute)
	code, err := s.Mint("u1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	assert.Equal(t, StatusMatched, s.Check("u1", code))
	// Check is non-consuming.
	assert.Equal(t, StatusMatched, s.Check("u1", code))

	s.Consume("u1")
	assert.Equal(t, StatusMissing, s.Check("u1", code))
}

func TestMismatchLeavesEntryIntact(t *testing.T) {
	s := New(5 * time.Minute)
	code, err := s.Mint("u1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, StatusMismatched, s.Check("u1", "000000"))
	}
	assert.Equal(t, StatusMatched, s.Check("u1", code), "legitimate holder can still redeem after mismatches")
}

func TestUnknownUser(t *testing.T) {
	s := New(5 * time.Minute)
	assert.Equal(t, StatusMissing, s.Check("nobody", "123456"))
}

func TestExpiry(t *testing.T) {
	s := New(5 * time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	code, err := s.Mint("u1")
	require.NoError(t, err)

	current = current.Add(5*time.Minute + time.Second)
	assert.Equal(t, StatusMissing, s.Check("u1", code), "expired code behaves as absent")
}

func TestRemintReplacesCode(t *testing.T) {
	s := New(5 * time.Minute)
	first, err := s.Mint("u1")
	require.NoError(t, err)
	second, err := s.Mint("u1")
	require.NoError(t, err)

	if first != second {
		assert.Equal(t, StatusMismatched, s.Check("u1", first), "stale code is dead after re-mint")
	}
	assert.Equal(t, StatusMatched, s.Check("u1", second))
}

func TestConcurrentMint(t *testing.T) {
	s := New(5 * time.Minute)
	var wg sync.WaitGroup
	codes := make([]string, 16)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := s.Mint("u1")
			require.NoError(t, err)
			codes[i] = code
		}(i)
	}
	wg.Wait()

	// Exactly one entry survives the race, and it matches one of the codes.
	matched := 0
	for _, code := range codes {
		if s.Check("u1", code) == StatusMatched {
			matched++
		}
	}
	assert.GreaterOrEqual(t, matched, 1)
	s.Consume("u1")
	for _, code := range codes {
		assert.Equal(t, StatusMissing, s.Check("u1", code))
	}
}
