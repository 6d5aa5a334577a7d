package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/baywoodland/woodland/internal/config"
)

const (
	adminSubject = "admin"
	visitorRole  = "visitor"
	issuer       = "woodland"
)

var (
	// ErrInvalidCredentials is returned when the admin password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of an admin or visitor token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Token is returned by a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service authenticates the site administrator.
type Service struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewService builds the admin auth service. Without a configured secret a
// random one is generated, so tokens only survive until the process restarts.
func NewService(cfg config.AdminConfig) (*Service, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Service{
		passwordHash: []byte(cfg.PasswordHash),
		secret:       secret,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// Login checks the password and issues a signed token. With no password hash
// configured every login fails.
func (s *Service) Login(password string) (Token, error) {
	if len(s.passwordHash) == 0 || password == "" {
		return Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	return s.issue(adminSubject, adminSubject)
}

// IssueVisitor signs a token for a registered visitor account. Visitor tokens
// never pass Verify.
func (s *Service) IssueVisitor(userID string) (Token, error) {
	if userID == "" || userID == adminSubject {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(userID, visitorRole)
}

func (s *Service) issue(subject, role string) (Token, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify parses and validates an admin token.
func (s *Service) Verify(tokenStr string) (Claims, error) {
	claims, err := s.parse(tokenStr, jwt.WithSubject(adminSubject))
	if err != nil || claims.Role != adminSubject {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyVisitor parses and validates a visitor token.
func (s *Service) VerifyVisitor(tokenStr string) (Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil || claims.Role != visitorRole || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) parse(tokenStr string, extra ...jwt.ParserOption) (Claims, error) {
	var claims Claims
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}, extra...)
	token, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil }, opts...)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
