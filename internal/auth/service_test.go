package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, redismock.ClientMock) {
	t.Helper()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewService([]byte("test-signing-key"), DefaultTTL, redisClient)
	service.RandStringFunc = func(int) (string, error) {
		return "test-session-id", nil
	}
	return service, redisMock
}

func TestService_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	service, redisMock := newTestService(t)

	redisMock.ExpectSet("inkwell-session||test-session-id", int64(42), DefaultTTL).SetVal("OK")
	redisMock.ExpectSAdd("inkwell-sessions", "test-session-id").SetVal(1)

	token, err := service.IssueToken(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	redisMock.ExpectGet("inkwell-session||test-session-id").SetVal("42")

	userID, err := service.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Verify_noToken(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestService_Verify_malformedToken(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Verify_wrongSigningKey(t *testing.T) {
	ctx := context.Background()
	service, redisMock := newTestService(t)

	redisMock.ExpectSet("inkwell-session||test-session-id", int64(42), DefaultTTL).SetVal("OK")
	redisMock.ExpectSAdd("inkwell-sessions", "test-session-id").SetVal(1)

	token, err := service.IssueToken(ctx, 42)
	require.NoError(t, err)

	otherService := NewService([]byte("other-signing-key"), DefaultTTL, nil)

	_, err = otherService.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Verify_expiredToken(t *testing.T) {
	ctx := context.Background()
	service, redisMock := newTestService(t)

	issuedAt := time.Now().Add(-25 * time.Hour)
	service.NowFunc = func() time.Time { return issuedAt }

	redisMock.ExpectSet("inkwell-session||test-session-id", int64(42), DefaultTTL).SetVal("OK")
	redisMock.ExpectSAdd("inkwell-sessions", "test-session-id").SetVal(1)

	token, err := service.IssueToken(ctx, 42)
	require.NoError(t, err)

	// move the clock past the 24h expiry
	service.NowFunc = time.Now

	_, err = service.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Verify_revokedSession(t *testing.T) {
	ctx := context.Background()
	service, redisMock := newTestService(t)

	redisMock.ExpectSet("inkwell-session||test-session-id", int64(42), DefaultTTL).SetVal("OK")
	redisMock.ExpectSAdd("inkwell-sessions", "test-session-id").SetVal(1)

	token, err := service.IssueToken(ctx, 42)
	require.NoError(t, err)

	redisMock.ExpectDel("inkwell-session||test-session-id").SetVal(1)
	redisMock.ExpectSRem("inkwell-sessions", "test-session-id").SetVal(1)
	require.NoError(t, service.Revoke(ctx, token))

	redisMock.ExpectGet("inkwell-session||test-session-id").RedisNil()

	_, err = service.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Verify_sessionUserMismatch(t *testing.T) {
	ctx := context.Background()
	service, redisMock := newTestService(t)

	redisMock.ExpectSet("inkwell-session||test-session-id", int64(42), DefaultTTL).SetVal("OK")
	redisMock.ExpectSAdd("inkwell-sessions", "test-session-id").SetVal(1)

	token, err := service.IssueToken(ctx, 42)
	require.NoError(t, err)

	// session hijacked / overwritten with another user id
	redisMock.ExpectGet("inkwell-session||test-session-id").SetVal("43")

	_, err = service.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("authorization header", func(t *testing.T) {
		r := newRequestWithAuth(t, "Bearer some-token", "")
		assert.Equal(t, "some-token", TokenFromRequest(r))
	})

	t.Run("cookie", func(t *testing.T) {
		r := newRequestWithAuth(t, "", "cookie-token")
		assert.Equal(t, "cookie-token", TokenFromRequest(r))
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		r := newRequestWithAuth(t, "Bearer header-token", "cookie-token")
		assert.Equal(t, "header-token", TokenFromRequest(r))
	})

	t.Run("no credential", func(t *testing.T) {
		r := newRequestWithAuth(t, "", "")
		assert.Equal(t, "", TokenFromRequest(r))
	})
}
