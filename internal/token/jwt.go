package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/model"
)

// Claims represents JWT claims of an access token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID   uuid.UUID `json:"sid"`
	Email       string    `json:"email,omitempty"`
	AccountType string    `json:"acct,omitempty"`
	TokenType   string    `json:"typ"`
}

// Params configures the JWT issuer.
type Params struct {
	Secret       string
	Issuer       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	RefreshBytes int
}

// JWT implements model.TokenIssuer with HMAC-signed access tokens and opaque refresh tokens.
type JWT struct {
	secretKey    []byte
	issuer       string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	refreshBytes int
}

var _ model.TokenIssuer = (*JWT)(nil)

const (
	typeAccess = "access"

	// MinRefreshBytes is the lower bound of refresh-token entropy (256 bits).
	MinRefreshBytes = 32
)

// NewJWT creates a new token issuer with the provided parameters.
func NewJWT(p Params) (*JWT, error) {
	if p.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if p.AccessTTL <= 0 || p.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if p.RefreshBytes < MinRefreshBytes {
		p.RefreshBytes = MinRefreshBytes
	}

	return &JWT{
		secretKey:    []byte(p.Secret),
		issuer:       p.Issuer,
		accessTTL:    p.AccessTTL,
		refreshTTL:   p.RefreshTTL,
		refreshBytes: p.RefreshBytes,
	}, nil
}

// IssueAccessToken creates a short-lived signed access token.
func (j *JWT) IssueAccessToken(c model.AccessClaims, now time.Time) (string, time.Time, error) {
	exp := now.Add(j.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   c.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID:   c.SessionID,
		Email:       c.Email,
		AccountType: c.AccountType,
		TokenType:   typeAccess,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, exp, nil
}

// IssueRefreshToken creates an opaque refresh token and returns it with its hash and expiry.
func (j *JWT) IssueRefreshToken(now time.Time) (string, string, time.Time, error) {
	plain, err := NewOpaque(j.refreshBytes)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return plain, Hash(plain), now.Add(j.refreshTTL), nil
}

// HashRefreshToken returns the storage form of a refresh token.
func (j *JWT) HashRefreshToken(token string) string {
	return Hash(token)
}

// VerifyAccessToken validates signature, issuer, type and expiry of an access token.
// It never touches storage.
func (j *JWT) VerifyAccessToken(tokenString string, now time.Time) (model.AccessClaims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.AccessClaims{}, model.ErrTokenExpired
		}
		return model.AccessClaims{}, model.ErrTokenInvalid
	}
	if !token.Valid || claims.TokenType != typeAccess || claims.SessionID == uuid.Nil {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}

	return model.AccessClaims{
		UserID:      userID,
		SessionID:   claims.SessionID,
		Email:       claims.Email,
		AccountType: claims.AccountType,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
