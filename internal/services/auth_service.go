package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/internal/repository"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL          = 7 * 24 * time.Hour
	MinPasswordLength = 6
	defaultBcryptCost = 12
)

var errInvalidCredentials = appErr.New(appErr.CodeUnauthorized, "invalid credentials")

type AuthService interface {
	Register(ctx context.Context, in *RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// VerifyToken accepts only HMAC-signed, unexpired tokens.
	VerifyToken(token string) (*Claims, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Claims is the verified identity carried by a token.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

type AuthOption func(*authService)

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) AuthOption {
	return func(s *authService) { s.bcryptCost = cost }
}

// WithClock overrides the time source used for token timestamps.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

type authService struct {
	userRepo   repository.UserRepository
	hmacSecret []byte
	bcryptCost int
	now        func() time.Time
	validate   *validator.Validate
}

func NewAuthService(userRepo repository.UserRepository, secret []byte, opts ...AuthOption) AuthService {
	s := &authService{
		userRepo:   userRepo,
		hmacSecret: secret,
		bcryptCost: defaultBcryptCost,
		now:        time.Now,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ AuthService = (*authService)(nil)

func (s *authService) Register(ctx context.Context, in *RegisterInput) (*AuthResult, error) {
	email := models.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.DisplayName)

	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, appErr.New(appErr.CodeInvalid, "a valid email is required")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, appErr.Newf(appErr.CodeInvalid, "password must be at least %d characters", MinPasswordLength)
	}
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "display name is required")
	}

	logger.L().Info("register user", zap.String("email", email))

	var existing models.User
	err := s.userRepo.GetByEmail(ctx, email, &existing)
	if err == nil {
		return nil, appErr.New(appErr.CodeAlreadyExists, "an account with this email already exists")
	}
	if !appErr.IsCode(err, appErr.CodeNotFound) {
		return nil, err
	}

	ph, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(ph),
		DisplayName:  name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if appErr.IsCode(err, appErr.CodeAlreadyExists) {
			return nil, appErr.New(appErr.CodeAlreadyExists, "an account with this email already exists")
		}
		return nil, err
	}

	logger.L().Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.userRepo.GetWithProfileByEmail(ctx, email, &user); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.L().Info("login rejected", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}

	return s.issue(&user)
}

func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.userRepo.GetWithProfile(ctx, userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	now := s.now()
	exp := now.Add(TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	})

	signed, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "sign token failed")
	}
	return &AuthResult{User: user, Token: signed, ExpiresAt: exp}, nil
}

func (s *authService) VerifyToken(tokenStr string) (*Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.hmacSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErr.Wrap(err, appErr.CodeUnauthorized, "token expired")
		}
		return nil, appErr.Wrap(err, appErr.CodeUnauthorized, "invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, appErr.New(appErr.CodeUnauthorized, "token has no subject")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnauthorized, "token subject is not a user id")
	}
	email, _ := claims["email"].(string)
	return &Claims{UserID: id, Email: email}, nil
}
