package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const CookieName = "auth_token"

type AuthService struct {
	userService  *UserService
	jwtSecret    string
	jwtExpiry    time.Duration
	isProduction bool
	// dummyHash is compared against when the username is unknown so both
	// failure paths take the same time
	dummyHash []byte
}

func NewAuthService(userService *UserService, jwtSecret string, jwtExpiry time.Duration, isProduction bool) *AuthService {
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

	return &AuthService{
		userService:  userService,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		isProduction: isProduction,
		dummyHash:    dummyHash,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.userService.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	logger.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return user, nil
}

// GenerateJWT issues a token whose subject is the username.
func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"sub":     user.Username,
		"user_id": user.ID,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

// VerifyJWT returns the username the token was issued for.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
