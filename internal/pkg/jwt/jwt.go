package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Access tokens are issued by the identity service; this service only needs to
// mint them in tests and tooling, and to mint short-lived SSE tokens.
type Service interface {
	GenerateAccessToken(userID string, role user.Role) (token string, expiresAt int64, err error)
	GenerateSSEToken(caller user.Caller) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (user.Caller, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    "access",
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(caller user.Caller) (token string, expiresIn int, err error) {
	expiresIn = 300
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": caller.UserID,
		"role":    string(caller.Role),
		"type":    "sse",
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the caller it was issued to
func (j *JWTService) ValidateSSEToken(tokenString string) (user.Caller, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return user.Caller{}, err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "sse" {
		return user.Caller{}, jwt.ErrInvalidJWT()
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return user.Caller{}, err
	}
	return callerFromClaims(claims)
}

// CallerFromContext reads the authenticated caller from the verified token in ctx.
func CallerFromContext(ctx context.Context) (user.Caller, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return user.Caller{}, fmt.Errorf("failed to extract claims from context: %w", auth.ErrInvalidToken)
	}
	return callerFromClaims(claims)
}

func callerFromClaims(claims map[string]interface{}) (user.Caller, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Caller{}, fmt.Errorf("%w: %w", auth.ErrMissingClaims, user.ErrMissingCallerID)
	}

	roleStr, ok := claims["role"].(string)
	role := user.Role(roleStr)
	if !ok || !role.IsValid() {
		return user.Caller{}, fmt.Errorf("%w: %w", auth.ErrMissingClaims, user.ErrInvalidRole)
	}

	return user.Caller{UserID: userID, Role: role}, nil
}
