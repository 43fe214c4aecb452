package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
	"github.com/learnquest/ledger/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store implements progress.Repository, user.Repository, catalog.Repository
// and catalog.Writer on PostgreSQL.
type Store struct {
	conn    *Connection
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewStore creates a Store. log may be nil.
func NewStore(conn *Connection, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("postgres"))
	s := &Store{conn: conn, log: log}
	s.retrier = retry.TransactionRetrier(IsRetryableTxError, func(attempt int, err error, delay time.Duration) {
		log.Warn("retrying ledger transaction",
			logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
	})
	return s
}

var _ progress.Repository = (*Store)(nil)

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// WithinUserTx runs fn in a READ COMMITTED transaction that first takes a
// transaction-scoped advisory lock on the user. Mutations of one user are
// serialized; different users hash to different locks and proceed in
// parallel. Serialization failures and deadlocks are replayed; fn must be
// safe to run again.
func (s *Store) WithinUserTx(ctx context.Context, userID string, fn progress.TxFunc) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
				return err
			}
			return fn(ctx, &txStore{tx: tx})
		})
	})
	return translateTxError(err)
}

// translateTxError keeps domain rejections and classifies the rest.
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	var funds *shared.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		return funds
	case errors.As(err, &de):
		return de
	case errors.Is(err, ErrCommitFailed):
		return shared.WrapError("ledger", "Commit", shared.ErrOutcomeUnknown, "commit outcome unknown", err)
	default:
		return shared.WrapError("ledger", "Transaction", shared.ErrStorage, "transaction rolled back", err)
	}
}

func readErr(op string, err error) error {
	return shared.WrapError("postgres", op, shared.ErrStorage, "query failed", err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress reads
// ─────────────────────────────────────────────────────────────────────────────

const statsColumns = `user_id, points, xp, level, streak, last_activity_at`

func scanStats(row pgx.Row) (*progress.UserStats, error) {
	st := &progress.UserStats{}
	if err := row.Scan(&st.UserID, &st.Points, &st.XP, &st.Level, &st.Streak, &st.LastActivityAt); err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStatsNotFound
		}
		return nil, err
	}
	return st, nil
}

// GetStats implements progress.Repository.
func (s *Store) GetStats(ctx context.Context, userID string) (*progress.UserStats, error) {
	st, err := scanStats(s.conn.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1`, userID))
	if err != nil && !shared.IsNotFound(err) {
		return nil, readErr("GetStats", err)
	}
	return st, err
}

func challengeFilterSQL(f progress.ChallengeFilter) string {
	switch f {
	case progress.ChallengesActive:
		return ` AND NOT uc.completed`
	case progress.ChallengesCompleted:
		return ` AND uc.completed`
	default:
		return ``
	}
}

// ListUserChallenges implements progress.Repository.
func (s *Store) ListUserChallenges(ctx context.Context, userID string, filter progress.ChallengeFilter) ([]*progress.ChallengeView, error) {
	query := `
		SELECT uc.id, uc.user_id, uc.challenge_id, uc.progress, uc.completed, uc.started_at, uc.completed_at,
		       ` + challengeColumnsAs("c") + `
		FROM user_challenges uc
		JOIN challenges c ON c.id = uc.challenge_id
		WHERE uc.user_id = $1` + challengeFilterSQL(filter) + `
		ORDER BY uc.started_at DESC, uc.id DESC
	`
	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, readErr("ListUserChallenges", err)
	}
	defer rows.Close()

	out := make([]*progress.ChallengeView, 0)
	for rows.Next() {
		v := &progress.ChallengeView{}
		ch, dest := challengeDest()
		dest = append([]any{
			&v.ID, &v.UserID, &v.ChallengeID, &v.Progress, &v.Completed, &v.StartedAt, &v.CompletedAt,
		}, dest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, readErr("ListUserChallenges", err)
		}
		v.Challenge = ch
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("ListUserChallenges", err)
	}
	return out, nil
}

// CountUserChallenges implements progress.Repository.
func (s *Store) CountUserChallenges(ctx context.Context, userID string, filter progress.ChallengeFilter) (int, error) {
	var n int
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM user_challenges uc WHERE uc.user_id = $1`+challengeFilterSQL(filter), userID).Scan(&n)
	if err != nil {
		return 0, readErr("CountUserChallenges", err)
	}
	return n, nil
}

// ListUserRewards implements progress.Repository.
func (s *Store) ListUserRewards(ctx context.Context, userID string) ([]*progress.RewardView, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT ur.id, ur.user_id, ur.reward_id, ur.redeemed_at, `+rewardColumnsAs("r")+`
		FROM user_rewards ur
		JOIN rewards r ON r.id = ur.reward_id
		WHERE ur.user_id = $1
		ORDER BY ur.redeemed_at DESC, ur.id DESC
	`, userID)
	if err != nil {
		return nil, readErr("ListUserRewards", err)
	}
	defer rows.Close()

	out := make([]*progress.RewardView, 0)
	for rows.Next() {
		v := &progress.RewardView{}
		rw, dest := rewardDest()
		dest = append([]any{&v.ID, &v.UserID, &v.RewardID, &v.RedeemedAt}, dest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, readErr("ListUserRewards", err)
		}
		v.Reward = rw
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("ListUserRewards", err)
	}
	return out, nil
}

// ListUserAchievements implements progress.Repository.
func (s *Store) ListUserAchievements(ctx context.Context, userID string, limit int) ([]*progress.AchievementView, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.conn.Query(ctx, `
		SELECT ua.id, ua.user_id, ua.achievement_id, ua.unlocked_at, `+achievementColumnsAs("a")+`
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC, ua.id DESC
		LIMIT $2
	`, userID, lim)
	if err != nil {
		return nil, readErr("ListUserAchievements", err)
	}
	defer rows.Close()

	out := make([]*progress.AchievementView, 0)
	for rows.Next() {
		v := &progress.AchievementView{}
		a, dest := achievementDest()
		dest = append([]any{&v.ID, &v.UserID, &v.AchievementID, &v.UnlockedAt}, dest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, readErr("ListUserAchievements", err)
		}
		v.Achievement = a
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("ListUserAchievements", err)
	}
	return out, nil
}

// CountUserAchievements implements progress.Repository.
func (s *Store) CountUserAchievements(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.conn.QueryRow(ctx, `SELECT count(*) FROM user_achievements WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, readErr("CountUserAchievements", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Activity log
// ─────────────────────────────────────────────────────────────────────────────

// ListActivity implements activity.Reader with keyset pagination over
// (created_at, seq) descending. pageSize <= 0 returns everything.
func (s *Store) ListActivity(ctx context.Context, userID string, cursor activity.Cursor, pageSize int) ([]*activity.Entry, error) {
	query, args := activityPageQuery(userID, cursor, pageSize)
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr("ListActivity", err)
	}
	defer rows.Close()

	out := make([]*activity.Entry, 0)
	for rows.Next() {
		e := &activity.Entry{}
		if err := rows.Scan(&e.Seq, &e.ID, &e.UserID, &e.Type, &e.Title, &e.XPDelta,
			&e.AppliedXP, &e.AppliedPoints, &e.Reason, &e.CreatedAt); err != nil {
			return nil, readErr("ListActivity", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("ListActivity", err)
	}
	return out, nil
}

func activityPageQuery(userID string, cursor activity.Cursor, pageSize int) (string, []any) {
	query := `
		SELECT seq, id, user_id, type, title, xp, applied_xp, applied_points, reason, created_at
		FROM activity_log
		WHERE user_id = $1`
	args := []any{userID}
	if !cursor.IsZero() {
		query += ` AND (created_at, seq) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.Seq)
	}
	query += `
		ORDER BY created_at DESC, seq DESC`
	if pageSize > 0 {
		args = append(args, pageSize)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	return query, args
}
