package user

import "context"

// Repository - чтение пользователей. Создание идёт через progress.Tx,
// чтобы пользователь и его статистика появлялись атомарно.
type Repository interface {
	// GetByID возвращает пользователя по ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername возвращает пользователя по логину.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
