package auth_test

import (
	"testing"
	"time"

	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenManager_IssueAndValidate 测试令牌签发与验证
func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "researchtools", time.Hour)

	token, err := tm.Issue("user-1", "alice", model.UserTypeResearcher)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, model.UserTypeResearcher, claims.UserType)
	assert.Equal(t, "researchtools", claims.Issuer)
}

// TestTokenManager_RejectsTampering 测试篡改与密钥不匹配
func TestTokenManager_RejectsTampering(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "researchtools", time.Hour)
	other := auth.NewTokenManager("other-secret", "researchtools", time.Hour)

	token, err := tm.Issue("user-1", "alice", model.UserTypeResearcher)
	require.NoError(t, err)

	// 错误密钥签发的令牌不通过
	foreign, err := other.Issue("user-1", "alice", model.UserTypeResearcher)
	require.NoError(t, err)
	_, err = tm.ValidateToken(foreign)
	require.Error(t, err)

	// 非法字符串不通过
	_, err = tm.ValidateToken(token + "x")
	require.Error(t, err)
	_, err = tm.ValidateToken("not-a-token")
	require.Error(t, err)
}

// TestTokenManager_RejectsWrongIssuer 测试 issuer 校验
func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	issuerA := auth.NewTokenManager("test-secret", "service-a", time.Hour)
	issuerB := auth.NewTokenManager("test-secret", "service-b", time.Hour)

	token, err := issuerA.Issue("user-1", "alice", model.UserTypeResearcher)
	require.NoError(t, err)

	_, err = issuerB.ValidateToken(token)
	require.Error(t, err)
}

// TestTokenManager_RejectsExpired 测试过期令牌
func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "researchtools", time.Millisecond)

	token, err := tm.Issue("user-1", "alice", model.UserTypeResearcher)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = tm.ValidateToken(token)
	require.Error(t, err)
}

// TestPasswordHashing 测试密码哈希
func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, auth.CheckPassword(hash, "correct horse"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))

	_, err = auth.HashPassword("")
	require.Error(t, err)
}
