package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/techbench/gradebook/internal/models"
	"github.com/techbench/gradebook/internal/validation"
)

type UserService struct{ DB *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{DB: db} }

// Authenticate checks a user name and password. Unknown, disabled and
// wrong-password logins all fail with ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (*models.Identity, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("user_name = ?", userName).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{ID: u.ID, UserName: u.UserName, Role: u.Role}, nil
}

// CreateUser adds an active account. role is ADMIN only when exactly "ADMIN".
func (s *UserService) CreateUser(ctx context.Context, userName, password, role string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	v := make(validation.Violations)
	validation.Required("user_name", userName, v)
	validation.Required("password", password, v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("user_name = ?", userName).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateUserName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		UserName:     userName,
		PasswordHash: string(hash),
		Role:         models.ParseRole(role),
		Active:       true,
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUserName
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).Order("user_name ASC").Find(&users).Error
	return users, err
}

func (s *UserService) SetUserActive(ctx context.Context, id uint, active bool) error {
	return s.update(ctx, id, "active", active)
}

func (s *UserService) SetUserRole(ctx context.Context, id uint, role string) error {
	return s.update(ctx, id, "role", models.ParseRole(role))
}

func (s *UserService) update(ctx context.Context, id uint, column string, value any) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsActive reports whether the account exists and is enabled.
func (s *UserService) IsActive(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ? AND active = ?", id, true).Count(&count).Error
	return count > 0, err
}

// EnsureAdmin provisions the bootstrap administrator when no account with that
// user name exists yet. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, userName, password string) (bool, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return false, nil
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("user_name = ?", userName).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, userName, password, string(models.RoleAdmin)); err != nil {
		return false, err
	}
	return true, nil
}

// CurrentRole returns the stored role of an active account. Missing and
// disabled accounts yield ErrNotFound.
func (s *UserService) CurrentRole(ctx context.Context, id uint) (models.Role, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Select("id", "role", "active").First(&u, id).Error
	if err != nil {
		return "", notFound(err)
	}
	if !u.Active {
		return "", ErrNotFound
	}
	return u.Role, nil
}
