package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
	ErrDevAuthDisabled    = errors.New("dev auth disabled")
	ErrUserNotFound       = errors.New("user not found")
)

const devTTL = 30 * 24 * time.Hour

// Service: сервис авторизации: регистрация, вход и выпуск JWT
type Service struct {
	config *config.Config
	users  storage.UsersStorage
}

func NewService(cfg *config.Config, users storage.UsersStorage) *Service {
	return &Service{
		config: cfg,
		users:  users,
	}
}

// SignUp: регистрация по email и паролю
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest) (*AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Password) < s.config.PasswordMinLength {
		return nil, fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, s.config.PasswordMinLength)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := storage.RoleUser
	if s.config.IsAdminEmail(email) {
		role = storage.RoleAdmin
	}

	now := time.Now().UTC()
	user := &storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Login: вход по email и паролю. Неизвестный email и неверный пароль
// неразличимы для клиента.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			dummyVerify()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	// ADMIN_EMAILS может быть расширен после регистрации
	if user.Role != storage.RoleAdmin && s.config.IsAdminEmail(user.Email) {
		if promoted, err := s.users.UpdateUserRole(ctx, user.ID, storage.RoleAdmin); err == nil {
			user = promoted
		}
	}

	return s.issue(user)
}

// SignInDev: dev-авторизация без пароля, выдает JWT на 30 дней с ролью admin
func (s *Service) SignInDev(ctx context.Context) (*AuthResponse, error) {
	_ = ctx

	if s.config.Env != "local" {
		return nil, ErrDevAuthDisabled
	}

	accessToken, err := s.generateJWTWithTTL(DevUserID, storage.RoleAdmin, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
		User:        UserView{ID: DevUserID, Role: storage.RoleAdmin},
	}, nil
}

// Me: текущий пользователь. Встроенные идентичности (default, dev-user)
// в хранилище не записываются.
func (s *Service) Me(ctx context.Context, userID, role string) (*UserView, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if userID == AnonymousUserID || userID == DevUserID {
				return &UserView{ID: userID, Role: role}, nil
			}
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	view := toUserView(user)
	return &view, nil
}

// Authenticate проверяет токен и подтягивает актуальную роль из хранилища,
// чтобы смена роли и удаление пользователя действовали сразу.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (Claims, error) {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return Claims{}, err
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	switch {
	case err == nil:
		claims.Role = user.Role
	case errors.Is(err, storage.ErrNotFound) && claims.UserID == DevUserID:
	case errors.Is(err, storage.ErrNotFound):
		return Claims{}, ErrInvalidToken
	default:
		return Claims{}, err
	}
	return claims, nil
}

func (s *Service) issue(user *storage.User) (*AuthResponse, error) {
	ttl := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	accessToken, err := s.generateJWTWithTTL(user.ID, user.Role, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        toUserView(user),
	}, nil
}

func (s *Service) generateJWTWithTTL(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iss":  s.config.JWTIssuer,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT: проверка подписи, срока и издателя токена
func (s *Service) VerifyJWT(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = storage.RoleUser
	}

	return Claims{UserID: sub, Role: role}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}

func toUserView(user *storage.User) UserView {
	createdAt := user.CreatedAt
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: &createdAt,
	}
}
