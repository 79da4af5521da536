package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/ctxutil"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/envutil"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

type AuthService interface {
	Register(dbc dbctx.Context, input RegisterInput) (*AuthResult, error)
	Login(dbc dbctx.Context, input LoginInput) (*AuthResult, error)
	Refresh(dbc dbctx.Context, refreshToken string) (*AuthResult, error)
	Logout(dbc dbctx.Context, refreshToken string) error
	// SetContextFromToken validates an access token and attaches the caller's
	// identity to the context.
	SetContextFromToken(ctx context.Context, accessToken string) (context.Context, error)
	// ExtendSession slides the caller's refresh-token expiry forward. Upload
	// paths call this right before issuing storage writes so a long transfer
	// never outlives its session.
	ExtendSession(dbc dbctx.Context) error
}

type authService struct {
	log        *logger.Logger
	users      repos.UserRepo
	tokens     repos.UserTokenRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, tokens repos.UserTokenRepo) (AuthService, error) {
	secret := envutil.String("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("missing env var JWT_SECRET")
	}
	return &authService{
		log:        log.With("service", "AuthService"),
		users:      users,
		tokens:     tokens,
		jwtSecret:  []byte(secret),
		accessTTL:  envutil.DurationSeconds("AUTH_ACCESS_TTL_SECONDS", 15*time.Minute),
		refreshTTL: envutil.DurationSeconds("AUTH_REFRESH_TTL_SECONDS", 30*24*time.Hour),
	}, nil
}

func (s *authService) Register(dbc dbctx.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email")
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	exists, err := s.users.EmailExists(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      "editor",
	}
	if _, err := s.users.Create(dbc, []*domain.User{user}); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID, "email", user.Email)
	return s.issueTokens(dbc, user)
}

func (s *authService) Login(dbc dbctx.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	found, err := s.users.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("invalid credentials")
	}
	user := found[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return s.issueTokens(dbc, user)
}

func (s *authService) Refresh(dbc dbctx.Context, refreshToken string) (*AuthResult, error) {
	tok, err := s.tokens.GetByRefreshToken(dbc, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if tok == nil || time.Now().After(tok.ExpiresAt) {
		return nil, fmt.Errorf("refresh token invalid or expired")
	}

	found, err := s.users.GetByIDs(dbc, []uuid.UUID{tok.UserID})
	if err != nil || len(found) == 0 {
		return nil, fmt.Errorf("refresh token has no user")
	}
	user := found[0]

	if err := s.tokens.ExtendExpiry(dbc, tok.ID, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("extend refresh token: %w", err)
	}
	access, expiresAt, err := s.mintAccessToken(user, tok.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) Logout(dbc dbctx.Context, refreshToken string) error {
	tok, err := s.tokens.GetByRefreshToken(dbc, refreshToken)
	if err != nil {
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if tok == nil {
		return nil
	}
	return s.tokens.FullDeleteByIDs(dbc, []uuid.UUID{tok.ID})
}

func (s *authService) SetContextFromToken(ctx context.Context, accessToken string) (context.Context, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("invalid access token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	tid, _ := claims["tid"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("invalid access token subject")
	}
	tokenID, err := uuid.Parse(tid)
	if err != nil {
		return ctx, fmt.Errorf("invalid access token id")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:  userID,
		Email:   email,
		TokenID: tokenID,
	}), nil
}

func (s *authService) ExtendSession(dbc dbctx.Context) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.TokenID == uuid.Nil {
		return fmt.Errorf("no authenticated session in context")
	}
	return s.tokens.ExtendExpiry(dbc, rd.TokenID, time.Now().Add(s.refreshTTL))
}

func (s *authService) issueTokens(dbc dbctx.Context, user *domain.User) (*AuthResult, error) {
	refresh, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	row := &domain.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}
	if _, err := s.tokens.Create(dbc, []*domain.UserToken{row}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	access, expiresAt, err := s.mintAccessToken(user, row.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) mintAccessToken(user *domain.User, tokenID uuid.UUID) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.accessTTL)
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"tid":   tokenID.String(),
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
