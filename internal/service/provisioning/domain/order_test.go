// internal/service/provisioning/domain/order_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenExpired_MissingExpiryCountsAsExpired(t *testing.T) {
	token := "abc"
	order := &Order{ProvisioningToken: &token}

	// token 与过期时间应同时存在；只有 token 的订单视为过期而非永久有效
	assert.True(t, order.TokenExpired(time.Now()))
}

func TestConsumeToken_IsIdempotent(t *testing.T) {
	token := "abc"
	expiry := time.Now().Add(time.Hour)
	order := &Order{ProvisioningToken: &token, ProvisioningTokenExpiry: &expiry}

	first := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	order.ConsumeToken(first)

	require.True(t, order.PasswordSet)
	require.NotNil(t, order.PasswordSetAt)
	assert.Nil(t, order.ProvisioningToken)
	assert.Nil(t, order.ProvisioningTokenExpiry)

	// 第二次消费不得改写 PasswordSetAt
	order.ConsumeToken(first.Add(time.Hour))
	assert.Equal(t, first, *order.PasswordSetAt)
}

func TestCheckToken_Ordering(t *testing.T) {
	token := "abc"
	past := time.Now().Add(-time.Second)
	future := time.Now().Add(time.Hour)

	expired := &Order{ProvisioningToken: &token, ProvisioningTokenExpiry: &past, PasswordSet: true}
	assert.ErrorIs(t, expired.CheckToken(time.Now()), ErrTokenExpired)

	used := &Order{ProvisioningToken: &token, ProvisioningTokenExpiry: &future, PasswordSet: true}
	assert.ErrorIs(t, used.CheckToken(time.Now()), ErrTokenAlreadyUsed)

	valid := &Order{ProvisioningToken: &token, ProvisioningTokenExpiry: &future}
	assert.NoError(t, valid.CheckToken(time.Now()))
}
