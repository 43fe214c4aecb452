package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

const userColumns = `id, username, display_name, email, profile_image_url, password_hash, joined_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var username *string
	if err := row.Scan(&u.ID, &username, &u.DisplayName, &u.Email, &u.ProfileImageURL, &u.PasswordHash, &u.JoinedAt); err != nil {
		return nil, err
	}
	if username != nil {
		u.Username = *username
	}
	return u, nil
}

// GetByID implements user.Repository.
func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	return getOne(ctx, s, "GetUser", `SELECT `+userColumns+` FROM users WHERE id = $1`, id, shared.ErrUserNotFound, scanUser)
}

// GetByUsername implements user.Repository. Matching ignores case.
func (s *Store) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return getOne(ctx, s, "GetUserByUsername",
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username, shared.ErrUserNotFound, scanUser)
}
