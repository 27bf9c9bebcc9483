package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/infrastructure/config"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
	Plan   entities.Plan     `json:"plan"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo  ports.UserRepository
	authRepo  ports.AuthRepository
	jwtConfig config.JWTConfig
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		authRepo:  authRepo,
		jwtConfig: jwtConfig,
		logger:    logger,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("user with email %s already exists", req.Email)
	}

	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("user with username %s already exists", req.Username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		DisplayName:  req.DisplayName,
		Role:         entities.UserRoleMember,
		Plan:         entities.PlanFree,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID, "email", user.Email)

	return s.issueTokens(ctx, user)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Warnw("Login attempt with non-existent email", "email", req.Email)
		return nil, fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		s.logger.Warnw("Login attempt with inactive account", "email", req.Email, "user_id", user.ID)
		return nil, fmt.Errorf("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "email", req.Email, "user_id", user.ID)
		return nil, fmt.Errorf("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	tokenHash := hashToken(refreshToken)

	stored, err := s.authRepo.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	if !stored.IsValid() {
		return nil, fmt.Errorf("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is inactive")
	}

	// Rotate: revoke the used token before issuing a new pair.
	if err := s.authRepo.RevokeRefreshToken(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes all of the user's refresh tokens
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.authRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	s.logger.Infow("User logged out", "user_id", userID)
	return nil
}

// ValidateToken parses and validates an access token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entities.User) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &ports.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtConfig.ExpiresIn.Seconds()),
		User:         &sanitized,
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		Plan:   user.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := hex.EncodeToString(raw)
	expiresAt := time.Now().Add(s.jwtConfig.RefreshExpiresIn)

	if err := s.authRepo.CreateRefreshToken(ctx, userID, hashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
