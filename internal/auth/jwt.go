package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 72 * time.Hour

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Session is what a valid token tells us about the caller.
type Session struct {
	UserID    int64
	SessionID string
}

// Issuer signs and validates login tokens with a shared HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer for the secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
}

// GenerateToken creates a token for userID with a fresh session id.
func (i *Issuer) GenerateToken(userID int64) (string, Session, error) {
	sess := Session{UserID: userID, SessionID: uuid.NewString()}
	now := i.now()

	// 1. --- Claims ---
	// "sub" carries the user, "sid" the login session used for single-flight.
	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sess.SessionID,
		"exp": now.Add(i.ttl).Unix(),
		"iat": now.Unix(),
	}

	// 2. --- Sign ---
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", Session{}, err
	}
	return tokenString, sess, nil
}

// ValidateToken parses tokenString and returns the session it carries.
func (i *Issuer) ValidateToken(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Session{}, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	// JSON numbers decode as float64.
	userIDFloat, ok := claims["sub"].(float64)
	if !ok || userIDFloat <= 0 {
		return Session{}, errors.Join(ErrInvalidToken, errors.New("invalid subject claim"))
	}
	sid, _ := claims["sid"].(string)

	return Session{UserID: int64(userIDFloat), SessionID: sid}, nil
}
