// Package user описывает учётную запись пользователя.
// Баланс и прогресс живут отдельно, в пакете progress.
package user

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Ошибки валидации пользователя.
var (
	ErrInvalidUsername    = errors.New("user: username must be 3-50 characters")
	ErrInvalidDisplayName = errors.New("user: display name is required")
	ErrWeakPassword       = errors.New("user: password must be at least 6 characters")
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// User - участник, который зарабатывает XP и тратит очки.
type User struct {
	// ID - внутренний идентификатор (UUID), его же выдаёт провайдер идентичности.
	ID string `json:"id"`

	// Username - логин; может быть пустым, если аккаунт создан внешним провайдером.
	Username string `json:"username,omitempty"`

	// DisplayName - имя для отображения.
	DisplayName string `json:"name"`

	Email           string `json:"email,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`

	// PasswordHash - bcrypt-хэш. Никогда не сериализуется.
	PasswordHash string `json:"-"`

	JoinedAt time.Time `json:"joinedDate"`
}

// NewUserParams - входные данные для создания пользователя.
type NewUserParams struct {
	ID              string
	Username        string
	DisplayName     string
	Email           string
	ProfileImageURL string
	PasswordHash    string
	JoinedAt        time.Time
}

// NewUser создаёт пользователя с валидацией.
func NewUser(p NewUserParams) (*User, error) {
	username := strings.TrimSpace(p.Username)
	if username != "" {
		n := utf8.RuneCountInString(username)
		if n < MinUsernameLength || n > MaxUsernameLength {
			return nil, ErrInvalidUsername
		}
	}
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return nil, ErrInvalidDisplayName
	}
	return &User{
		ID:              p.ID,
		Username:        username,
		DisplayName:     name,
		Email:           strings.TrimSpace(p.Email),
		ProfileImageURL: p.ProfileImageURL,
		PasswordHash:    p.PasswordHash,
		JoinedAt:        p.JoinedAt,
	}, nil
}

// ValidatePassword проверяет требования к паролю до хэширования.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
