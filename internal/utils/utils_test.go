package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDFormat(t *testing.T) {
	now := time.UnixMilli(1718000000000)

	id := NewID("prod", now)
	assert.Regexp(t, regexp.MustCompile(`^prod-1718000000000-[0-9a-f]{9}$`), id)

	number := NewOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-1718000000000-[0-9A-F]{9}$`), number)
}

func TestNewIDUniqueWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		id := NewID("order", now)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "admin", RoleAdmin, time.Hour)
	require.NoError(t, err)

	subject, err := ParseToken("secret", token, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	_, err = ParseToken("other-secret", token, RoleAdmin)
	assert.Error(t, err)

	_, err = ParseToken("secret", token, "customer")
	assert.ErrorIs(t, err, ErrForbiddenRole)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("secret", "admin", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token, RoleAdmin)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("resin-art-2024")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "resin-art-2024"))
	assert.False(t, CheckPassword(hash, "wrong"))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestNewPaginationClamps(t *testing.T) {
	p := NewPagination(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 0, p.Offset)

	p = NewPagination(3, 0)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 40, p.Offset)
}
