package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "roster"

// Principal is the identity carried by a validated token.
type Principal struct {
	AdminID string
	Role    string
}

// AuthService issues and validates the bearer tokens handed out at login.
// Tokens are stateless: nothing is stored server-side and there is no logout.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
}

func NewAuthService(jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
	}
}

// IssueToken creates a new signed JWT for the given admin and role.
func (s *AuthService) IssueToken(adminID, role string) (string, error) {
	return s.issue(adminID, role, s.ttl)
}

func (s *AuthService) issue(adminID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a JWT bearer token and returns the identity it
// carries. Expired tokens return ErrTokenExpired; anything else that fails
// verification returns ErrInvalidCredentials.
func (s *AuthService) ValidateToken(tokenStr string) (*Principal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredentials
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	return &Principal{
		AdminID: claims.Subject,
		Role:    claims.Role,
	}, nil
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
