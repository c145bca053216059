package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSONOmitsPassword(t *testing.T) {
	u := User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$10$hash"}
	data, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "$2a$10$hash")
}

func TestUserPatchApply(t *testing.T) {
	u := &User{ID: "u1", Name: "Ada", Email: "ada@example.com", Phone: "1"}
	phone := "555-0100"
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	UserPatch{Phone: &phone}.Apply(u, now)

	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "555-0100", u.Phone)
	assert.Equal(t, now, u.UpdatedAt)
}
