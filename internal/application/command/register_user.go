package command

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
	"github.com/learnquest/ledger/pkg/logger"
)

// RegisterUserCommand creates a user together with default stats.
// ID may be supplied by an external identity provider; otherwise one is generated.
// Password is optional for externally authenticated accounts.
type RegisterUserCommand struct {
	ID              string
	Username        string
	Password        string
	DisplayName     string
	Email           string
	ProfileImageURL string
	CorrelationID   string
}

// RegisterUserResult contains the created user and their initial stats.
type RegisterUserResult struct {
	User  *user.User
	Stats *progress.UserStats
}

// RegisterUserHandler handles RegisterUserCommand.
type RegisterUserHandler struct {
	deps       Deps
	bcryptCost int
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
// bcryptCost <= 0 uses bcrypt.DefaultCost.
func NewRegisterUserHandler(deps Deps, bcryptCost int) *RegisterUserHandler {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &RegisterUserHandler{deps: deps.withDefaults(), bcryptCost: bcryptCost}
}

// Handle executes the command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	var hash string
	if cmd.Password != "" {
		if err := user.ValidatePassword(cmd.Password); err != nil {
			return nil, shared.WrapError("user", "Validate", shared.ErrInvalidInput, err.Error(), err)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return nil, shared.WrapError("user", "Validate", shared.ErrInvalidInput, "password too long", err)
			}
			return nil, shared.WrapError("user", "HashPassword", shared.ErrStorage, "internal error", err)
		}
		hash = string(b)
	}

	id := cmd.ID
	if id == "" {
		id = h.deps.NewID()
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:              id,
		Username:        cmd.Username,
		DisplayName:     cmd.DisplayName,
		Email:           cmd.Email,
		ProfileImageURL: cmd.ProfileImageURL,
		PasswordHash:    hash,
		JoinedAt:        h.deps.Clock.Now(),
	})
	if err != nil {
		return nil, shared.WrapError("user", "Validate", shared.ErrInvalidInput, err.Error(), err)
	}

	result := &RegisterUserResult{User: u}
	err = runInUserTx(ctx, h.deps, "register_user", u.ID, func(ctx context.Context, tx progress.Tx) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		stats, err := h.deps.Ledger.Provision(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		result.Stats = stats
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("user registered", logger.UserID(u.ID), logger.String("username", u.Username))
	publish(h.deps, cmd.CorrelationID, shared.NewUserRegisteredEvent(u.ID, u.Username, u.DisplayName, u.JoinedAt))

	return result, nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
func VerifyPassword(u *user.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
