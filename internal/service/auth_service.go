package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"device_console/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = time.Hour
	tokenIssuer     = "device-console"

	maxUsernameLen = 64
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrUserNotFound     = errors.New("operator not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrEmptySigningKey  = errors.New("signing key is empty")
	ErrOperatorExists   = repository.ErrOperatorExists
	errPasswordTooLong  = fmt.Errorf("%w: longer than %d bytes", ErrInvalidPassword, maxPasswordLen)
	errPasswordIsBlank  = fmt.Errorf("%w: empty", ErrInvalidPassword)
	errUsernameTooLong  = fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, maxUsernameLen)
	errUsernameHasSpace = fmt.Errorf("%w: must not contain whitespace", ErrInvalidUsername)
)

// AuthService signs operators in and issues their tokens.
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

func NewAuthService(repo repository.Authorization, opts AuthOptions) *AuthService {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		authRepo:   repo,
		signingKey: []byte(opts.SigningKey),
		tokenTTL:   ttl,
		now:        time.Now,
	}
}

// Claims is the token payload; Subject carries the operator id as well.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// SignUp validates the credentials, hashes the password and stores the operator.
func (s *AuthService) SignUp(username, password string) (int, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return 0, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	return s.authRepo.Create(username, hash)
}

// GenerateToken checks the credentials and returns a signed token.
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return "", ErrUserNotFound
	}
	op, err := s.authRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(op.ID)
}

// ParseToken verifies an HS256 token from this console and returns the operator id.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(accessToken, &claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.OperatorID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.OperatorID, nil
}

func (s *AuthService) issueToken(operatorID int) (string, error) {
	if len(s.signingKey) == 0 {
		return "", ErrEmptySigningKey
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(operatorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		OperatorID: operatorID,
	})
	return token.SignedString(s.signingKey)
}

// normalizeUsername trims and lowercases; inner whitespace is rejected.
func normalizeUsername(u string) (string, error) {
	u = strings.ToLower(strings.TrimSpace(u))
	switch {
	case u == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	case len([]rune(u)) > maxUsernameLen:
		return "", errUsernameTooLong
	case strings.IndexFunc(u, unicode.IsSpace) >= 0:
		return "", errUsernameHasSpace
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	switch {
	case strings.TrimSpace(password) == "":
		return "", errPasswordIsBlank
	case len(password) > maxPasswordLen:
		return "", errPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
