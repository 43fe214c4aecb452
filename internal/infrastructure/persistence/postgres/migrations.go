package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS AND STATS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users and user_stats
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username VARCHAR(50),
    display_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL DEFAULT '',
    profile_image_url TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- usernames are unique regardless of case; users without one are allowed
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower
    ON users(LOWER(username)) WHERE username IS NOT NULL;

-- Exactly one row per user; the ledger is the only writer.
CREATE TABLE IF NOT EXISTS user_stats (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    points INTEGER NOT NULL DEFAULT 0,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    streak INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_points CHECK (points >= 0),
    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_streak CHECK (streak >= 0)
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create catalog tables
-- Version: 002

CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    xp_reward INTEGER NOT NULL,
    category VARCHAR(50) NOT NULL,
    difficulty INTEGER NOT NULL DEFAULT 1,
    duration_days INTEGER NOT NULL DEFAULT 1,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_challenge_xp CHECK (xp_reward >= 0),
    CONSTRAINT valid_challenge_difficulty CHECK (difficulty BETWEEN 1 AND 5),
    CONSTRAINT valid_duration CHECK (duration_days >= 1)
);

CREATE INDEX IF NOT EXISTS idx_challenges_active ON challenges(created_at DESC) WHERE is_active;

CREATE TABLE IF NOT EXISTS rewards (
    id TEXT PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    points_required INTEGER NOT NULL,
    category VARCHAR(50) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_points_required CHECK (points_required >= 0)
);

CREATE INDEX IF NOT EXISTS idx_rewards_active ON rewards(points_required) WHERE is_active;

CREATE TABLE IF NOT EXISTS achievements (
    id TEXT PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(50) NOT NULL DEFAULT '',
    xp_reward INTEGER NOT NULL,
    rarity VARCHAR(20) NOT NULL DEFAULT 'common',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_achievement_xp CHECK (xp_reward >= 0),
    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'rare', 'epic', 'legendary'))
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    subject VARCHAR(50) NOT NULL,
    question TEXT NOT NULL,
    options JSONB NOT NULL,
    correct_answer INTEGER NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 10,
    difficulty INTEGER NOT NULL DEFAULT 1,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_question_xp CHECK (xp_reward >= 0),
    CONSTRAINT valid_question_difficulty CHECK (difficulty BETWEEN 1 AND 5),
    CONSTRAINT valid_correct_answer CHECK (correct_answer >= 0 AND correct_answer < jsonb_array_length(options))
);

CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(LOWER(subject));
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PROGRESS AND ACTIVITY LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create join records and the activity log
-- Version: 003

CREATE TABLE IF NOT EXISTS user_challenges (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    challenge_id TEXT NOT NULL REFERENCES challenges(id),
    progress INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_progress CHECK (progress BETWEEN 0 AND 100),
    CONSTRAINT completed_has_time CHECK (NOT completed OR completed_at IS NOT NULL)
);

-- at most one open enrollment per (user, challenge)
CREATE UNIQUE INDEX IF NOT EXISTS idx_user_challenges_open
    ON user_challenges(user_id, challenge_id) WHERE NOT completed;
CREATE INDEX IF NOT EXISTS idx_user_challenges_user ON user_challenges(user_id, started_at DESC);

CREATE TABLE IF NOT EXISTS user_rewards (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    reward_id TEXT NOT NULL REFERENCES rewards(id),
    redeemed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_user_rewards_user ON user_rewards(user_id, redeemed_at DESC);

CREATE TABLE IF NOT EXISTS user_achievements (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    achievement_id TEXT NOT NULL REFERENCES achievements(id),
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_user_achievement UNIQUE (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id, unlocked_at DESC);

CREATE TABLE IF NOT EXISTS user_answers (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES questions(id),
    selected_answer INTEGER NOT NULL,
    is_correct BOOLEAN NOT NULL,
    answered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_user_answers_user ON user_answers(user_id, answered_at DESC);

-- Append-only. seq breaks created_at ties in insertion order.
CREATE TABLE IF NOT EXISTS activity_log (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    title VARCHAR(300) NOT NULL,
    xp INTEGER NOT NULL,
    applied_xp INTEGER NOT NULL DEFAULT 0,
    applied_points INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_activity_type CHECK (type IN ('challenge', 'achievement', 'reward', 'penalty', 'question')),
    CONSTRAINT penalty_has_reason CHECK (type <> 'penalty' OR reason <> '')
);

-- keyset pagination: newest first
CREATE INDEX IF NOT EXISTS idx_activity_log_user_recent ON activity_log(user_id, created_at DESC, seq DESC);
`

