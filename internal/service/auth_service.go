package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
	"github.com/ignatzorin/mechanic-backend/internal/validation"
)

// AuthUserRepository описывает зависимости AuthService от слоя хранилища.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, phone *string) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// AuthMechanicRepository создаёт профиль механика при регистрации.
type AuthMechanicRepository interface {
	CreateProfile(ctx context.Context, profile *models.MechanicProfile) error
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	users        AuthUserRepository
	mechanics    AuthMechanicRepository
	tokenManager *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Phone          *string
	Role           string
	Specialization *string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepository, mechanics AuthMechanicRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		users:        users,
		mechanics:    mechanics,
		tokenManager: tokenManager,
	}
}

// Register создаёт нового пользователя. Для роли mechanic сразу заводится
// профиль со статусом верификации pending и выключенной доступностью.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if in.Role != models.RoleCustomer && in.Role != models.RoleMechanic {
		return nil, apperror.New(apperror.ErrCodeValidation, "роль должна быть customer или mechanic")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        in.Phone,
		PasswordHash: string(passHash),
		Role:         in.Role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.ErrEmailAlreadyExists
		}
		return nil, err
	}

	if user.Role == models.RoleMechanic {
		profile := &models.MechanicProfile{
			UserID:         user.ID,
			Specialization: in.Specialization,
		}
		if err := s.mechanics.CreateProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	tokenPair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLoginAt(ctx, user.ID); err != nil {
		// Не прерываем вход из-за служебного поля.
		logger.WithComponent("auth").WithField("user_id", user.ID).Warnf("не удалось обновить last_login_at: %v", err)
	}

	tokenPair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Refresh выпускает новую пару токенов по действующему refresh токену.
// Старая сессия удаляется: каждый refresh токен одноразовый.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta map[string]string) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	if _, err := s.users.GetSessionByToken(ctx, oldToken); err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "сессия не найдена или истекла")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "некорректный subject")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrUserNotFound
	}

	if err := s.users.DeleteSession(ctx, oldToken); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, meta)
}

// Logout завершает сессию по refresh токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.users.DeleteSession(ctx, refreshToken)
}

// GetProfile возвращает пользователя по идентификатору.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile обновляет имя и телефон пользователя.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, phone *string) (*models.User, error) {
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(fullName), phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueSession выпускает пару токенов и сохраняет refresh сессию.
func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta map[string]string) (*TokenPair, error) {
	tokenPair, _, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	if meta != nil {
		if ua, ok := meta["user_agent"]; ok {
			session.UserAgent = &ua
		}
		if ip, ok := meta["ip"]; ok {
			session.IPAddress = &ip
		}
	}

	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return tokenPair, nil
}
