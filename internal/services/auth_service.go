package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// otpEntry is a pending one-time code for a phone number. Only the
// bcrypt hash of the code is kept.
type otpEntry struct {
	codeHash  []byte
	expiresAt time.Time
}

// AuthService handles business logic for authentication and authorization.
// It supports two sign-in paths that both end in the same JWT:
// username/password and phone OTP.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	otpTTL     time.Duration

	otpMu sync.Mutex
	otps  map[string]otpEntry // keyed by phone
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, otpTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
		otpTTL:     otpTTL,
		otps:       make(map[string]otpEntry),
	}
}

// RegisterUser registers a new user, hashes their password, and saves them to the database.
func (s *AuthService) RegisterUser(user *models.User) error {
	// Check if username or email already exists
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s' already taken", user.Username)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered", user.Email)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword) // Store the hashed password

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// It's good practice not to reveal if the username exists or not for security
		return "", fmt.Errorf("invalid credentials")
	}

	// Compare the provided password with the hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	return s.issueToken(user)
}

// RequestOTP issues a 6-digit one-time code for an existing user's
// phone number. The code is returned to the caller for delivery (an SMS
// provider in a real deployment); only its hash is stored, and it
// replaces any previous pending code for the phone.
func (s *AuthService) RequestOTP(phone string) (string, error) {
	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return "", fmt.Errorf("failed to request OTP: %w", err)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash OTP: %w", err)
	}

	s.otpMu.Lock()
	s.otps[phone] = otpEntry{
		codeHash:  codeHash,
		expiresAt: time.Now().Add(s.otpTTL),
	}
	s.otpMu.Unlock()

	log.Printf("Issued OTP for user %s (expires in %s)", user.ID, s.otpTTL)
	return code, nil
}

// VerifyOTP checks a one-time code and returns a JWT on success. A code
// is single-use: it is discarded whether or not it matched, forcing a
// fresh RequestOTP after a failure.
func (s *AuthService) VerifyOTP(phone, code string) (string, error) {
	s.otpMu.Lock()
	entry, ok := s.otps[phone]
	delete(s.otps, phone)
	s.otpMu.Unlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", fmt.Errorf("invalid or expired code")
	}
	if err := bcrypt.CompareHashAndPassword(entry.codeHash, []byte(code)); err != nil {
		return "", fmt.Errorf("invalid or expired code")
	}

	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return "", fmt.Errorf("invalid or expired code")
	}
	return s.issueToken(user)
}

// issueToken signs a JWT for the user.
func (s *AuthService) issueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":      time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
