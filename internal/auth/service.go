package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/inkwell-app/inkwell/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * time.Hour
	sessionKeyPrefix = "inkwell-session||"
	sessionsSetKey   = "inkwell-sessions"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims binds a user id to a signed, time-limited token.
// RegisteredClaims.ID carries the session id, so that issued
// tokens can be revoked before their expiry.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens. Each issued token is
// registered as a session in redis; verification rejects tokens whose
// session was revoked, even if the signature and expiry still hold.
type Service struct {
	signingKey  []byte
	ttl         time.Duration
	redisClient *redis.Client
	// ability to inject random string generator func for session ids (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
	// ability to move the clock in tests
	NowFunc func() time.Time
}

func NewService(
	signingKey []byte,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		signingKey:     signingKey,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
		NowFunc:        time.Now,
	}
}

// IssueToken creates a signed token bound to the given user id and
// registers its session in redis.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	sessionID, err := s.RandStringFunc(24)
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	now := s.NowFunc()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := sessionKeyPrefix + sessionID
	if err := s.redisClient.Set(ctx, sessionKey, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	// add session id to the set of sessions, for scan and clean
	if err := s.redisClient.SAdd(ctx, sessionsSetKey, sessionID).Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return token, nil
}

// Verify parses and validates the token, then checks that its session
// was not revoked. Returns the user id bound to the token.
func (s *Service) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNoToken
	}

	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}

	sessionKey := sessionKeyPrefix + claims.ID
	storedUserID, err := s.redisClient.Get(ctx, sessionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("get session: %w", err)
	}
	if storedUserID != claims.UserID {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// Revoke removes the token's session, invalidating the token for all
// subsequent requests regardless of its expiry.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	sessionKey := sessionKeyPrefix + claims.ID
	removed, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if err := s.redisClient.SRem(ctx, sessionsSetKey, claims.ID).Err(); err != nil {
		return fmt.Errorf("deregister session: %w", err)
	}
	if removed == 0 {
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return s.NowFunc() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ScanAndClean will run through all registered sessions and remove the
// ones whose redis key already expired from the sessions set
func (s *Service) ScanAndClean(ctx context.Context) {
	sessionIDs, err := s.redisClient.SMembers(ctx, sessionsSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionIDs) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionKey := sessionKeyPrefix + sessionID
		exists, err := s.redisClient.Exists(ctx, sessionKey).Result()
		if err != nil {
			log.Errorf("=> auth service, scan and clean session %s: %s", sessionID, err)
			continue
		}
		if exists > 0 {
			continue
		}
		if err := s.redisClient.SRem(ctx, sessionsSetKey, sessionID).Err(); err != nil {
			log.Errorf("=> auth service, clean session %s: %s", sessionID, err)
		}
	}
}
