package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY
// Catalog rows are read-mostly; writes come from seeding.
// ══════════════════════════════════════════════════════════════════════════════

func columnsAs(alias string, cols ...string) string {
	prefixed := make([]string, len(cols))
	for i, c := range cols {
		prefixed[i] = alias + "." + c
	}
	return strings.Join(prefixed, ", ")
}

var (
	challengeCols   = []string{"id", "title", "description", "xp_reward", "category", "difficulty", "duration_days", "is_active", "image_url", "created_at"}
	rewardCols      = []string{"id", "title", "description", "points_required", "category", "is_active", "created_at"}
	achievementCols = []string{"id", "title", "description", "icon", "xp_reward", "rarity", "created_at"}
	questionCols    = []string{"id", "subject", "question", "options", "correct_answer", "xp_reward", "difficulty", "image_url", "created_at"}
)

func challengeColumnsAs(alias string) string   { return columnsAs(alias, challengeCols...) }
func rewardColumnsAs(alias string) string      { return columnsAs(alias, rewardCols...) }
func achievementColumnsAs(alias string) string { return columnsAs(alias, achievementCols...) }

func challengeDest() (*catalog.Challenge, []any) {
	c := &catalog.Challenge{}
	return c, []any{&c.ID, &c.Title, &c.Description, &c.XPReward, &c.Category,
		&c.Difficulty, &c.DurationDays, &c.IsActive, &c.ImageURL, &c.CreatedAt}
}

func rewardDest() (*catalog.Reward, []any) {
	r := &catalog.Reward{}
	return r, []any{&r.ID, &r.Title, &r.Description, &r.PointsRequired, &r.Category, &r.IsActive, &r.CreatedAt}
}

func achievementDest() (*catalog.Achievement, []any) {
	a := &catalog.Achievement{}
	return a, []any{&a.ID, &a.Title, &a.Description, &a.Icon, &a.XPReward, &a.Rarity, &a.CreatedAt}
}

func scanQuestion(row pgx.Row) (*catalog.Question, error) {
	q := &catalog.Question{}
	var options []byte
	if err := row.Scan(&q.ID, &q.Subject, &q.Text, &options, &q.CorrectAnswer,
		&q.XPReward, &q.Difficulty, &q.ImageURL, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
	}
	return q, nil
}

// getOne runs a single-row catalog lookup and maps "no rows" to notFound.
func getOne[T any](ctx context.Context, s *Store, op, query, id string, notFound error, scan func(pgx.Row) (*T, error)) (*T, error) {
	v, err := scan(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, notFound
		}
		return nil, readErr(op, err)
	}
	return v, nil
}

func scanWith[T any](dest func() (*T, []any)) func(pgx.Row) (*T, error) {
	return func(row pgx.Row) (*T, error) {
		v, d := dest()
		if err := row.Scan(d...); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func listAll[T any](ctx context.Context, s *Store, op, query string, scan func(pgx.Row) (*T, error), args ...any) ([]*T, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr(op, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, readErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

// GetChallenge implements catalog.Repository.
func (s *Store) GetChallenge(ctx context.Context, id string) (*catalog.Challenge, error) {
	return getOne(ctx, s, "GetChallenge",
		`SELECT `+strings.Join(challengeCols, ", ")+` FROM challenges WHERE id = $1`,
		id, shared.ErrChallengeNotFound, scanWith(challengeDest))
}

// GetReward implements catalog.Repository.
func (s *Store) GetReward(ctx context.Context, id string) (*catalog.Reward, error) {
	return getOne(ctx, s, "GetReward",
		`SELECT `+strings.Join(rewardCols, ", ")+` FROM rewards WHERE id = $1`,
		id, shared.ErrRewardNotFound, scanWith(rewardDest))
}

// GetAchievement implements catalog.Repository.
func (s *Store) GetAchievement(ctx context.Context, id string) (*catalog.Achievement, error) {
	return getOne(ctx, s, "GetAchievement",
		`SELECT `+strings.Join(achievementCols, ", ")+` FROM achievements WHERE id = $1`,
		id, shared.ErrAchievementNotFound, scanWith(achievementDest))
}

// GetQuestion implements catalog.Repository.
func (s *Store) GetQuestion(ctx context.Context, id string) (*catalog.Question, error) {
	return getOne(ctx, s, "GetQuestion",
		`SELECT `+strings.Join(questionCols, ", ")+` FROM questions WHERE id = $1`,
		id, shared.ErrQuestionNotFound, scanQuestion)
}

// ListActiveChallenges implements catalog.Repository.
func (s *Store) ListActiveChallenges(ctx context.Context) ([]*catalog.Challenge, error) {
	return listAll(ctx, s, "ListActiveChallenges",
		`SELECT `+strings.Join(challengeCols, ", ")+` FROM challenges WHERE is_active ORDER BY created_at DESC, id`,
		scanWith(challengeDest))
}

// ListActiveRewards implements catalog.Repository.
func (s *Store) ListActiveRewards(ctx context.Context) ([]*catalog.Reward, error) {
	return listAll(ctx, s, "ListActiveRewards",
		`SELECT `+strings.Join(rewardCols, ", ")+` FROM rewards WHERE is_active ORDER BY points_required, id`,
		scanWith(rewardDest))
}

// ListAchievements implements catalog.Repository.
func (s *Store) ListAchievements(ctx context.Context) ([]*catalog.Achievement, error) {
	return listAll(ctx, s, "ListAchievements",
		`SELECT `+strings.Join(achievementCols, ", ")+` FROM achievements ORDER BY created_at, id`,
		scanWith(achievementDest))
}

// ListQuestionsBySubject implements catalog.Repository.
func (s *Store) ListQuestionsBySubject(ctx context.Context, subject string) ([]*catalog.Question, error) {
	return listAll(ctx, s, "ListQuestionsBySubject",
		`SELECT `+strings.Join(questionCols, ", ")+` FROM questions WHERE LOWER(subject) = LOWER($1) ORDER BY difficulty, id`,
		scanQuestion, subject)
}

// ─────────────────────────────────────────────────────────────────────────────
// Writer (upserts keyed by ID so seeding is idempotent)
// ─────────────────────────────────────────────────────────────────────────────

// SaveChallenge implements catalog.Writer.
func (s *Store) SaveChallenge(ctx context.Context, c *catalog.Challenge) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO challenges (id, title, description, xp_reward, category, difficulty, duration_days, is_active, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, xp_reward = EXCLUDED.xp_reward,
			category = EXCLUDED.category, difficulty = EXCLUDED.difficulty, duration_days = EXCLUDED.duration_days,
			is_active = EXCLUDED.is_active, image_url = EXCLUDED.image_url
	`, c.ID, c.Title, c.Description, c.XPReward, c.Category, c.Difficulty, c.DurationDays, c.IsActive, c.ImageURL, c.CreatedAt)
	if err != nil {
		return writeErr("SaveChallenge", err)
	}
	return nil
}

// SaveReward implements catalog.Writer.
func (s *Store) SaveReward(ctx context.Context, r *catalog.Reward) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO rewards (id, title, description, points_required, category, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, points_required = EXCLUDED.points_required,
			category = EXCLUDED.category, is_active = EXCLUDED.is_active
	`, r.ID, r.Title, r.Description, r.PointsRequired, r.Category, r.IsActive, r.CreatedAt)
	if err != nil {
		return writeErr("SaveReward", err)
	}
	return nil
}

// SaveAchievement implements catalog.Writer.
func (s *Store) SaveAchievement(ctx context.Context, a *catalog.Achievement) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO achievements (id, title, description, icon, xp_reward, rarity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, icon = EXCLUDED.icon,
			xp_reward = EXCLUDED.xp_reward, rarity = EXCLUDED.rarity
	`, a.ID, a.Title, a.Description, a.Icon, a.XPReward, string(a.Rarity), a.CreatedAt)
	if err != nil {
		return writeErr("SaveAchievement", err)
	}
	return nil
}

// SaveQuestion implements catalog.Writer.
func (s *Store) SaveQuestion(ctx context.Context, q *catalog.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = s.conn.Exec(ctx, `
		INSERT INTO questions (id, subject, question, options, correct_answer, xp_reward, difficulty, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			subject = EXCLUDED.subject, question = EXCLUDED.question, options = EXCLUDED.options,
			correct_answer = EXCLUDED.correct_answer, xp_reward = EXCLUDED.xp_reward,
			difficulty = EXCLUDED.difficulty, image_url = EXCLUDED.image_url
	`, q.ID, q.Subject, q.Text, options, q.CorrectAnswer, q.XPReward, q.Difficulty, q.ImageURL, q.CreatedAt)
	if err != nil {
		return writeErr("SaveQuestion", err)
	}
	return nil
}

func writeErr(op string, err error) error {
	if IsCheckViolation(err) {
		return shared.WrapError("catalog", op, shared.ErrInvalidInput, "constraint "+ConstraintName(err)+" violated", err)
	}
	return shared.WrapError("postgres", op, shared.ErrStorage, "write failed", err)
}
