package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"), time.Hour)
	token, err := s.Sign("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)

	// Negative cases ensure Validate is strict about every input.
	other := NewSigner([]byte("othersecret"), time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerExpiry(t *testing.T) {
	s := NewSigner([]byte("topsecret"), time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Sign("user-123")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = s.Validate(token)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
