package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/application/command"
	"github.com/learnquest/ledger/internal/application/query"
	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/memory"
	"github.com/learnquest/ledger/internal/interface/http/handlers"
	"github.com/learnquest/ledger/pkg/logger"
)

const testAdminKey = "admin-secret"

type apiFixture struct {
	store   *memory.Store
	handler http.Handler
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *ResponseMeta   `json:"meta"`
}

func newAPIFixture(t *testing.T, checker handlers.HealthChecker) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	deps := command.Deps{Repo: store, Catalog: store, Logger: logger.Nop()}
	recorder := activity.NewRecorder(store, shared.SystemClock{}, uuid.NewString, activity.DefaultPageSize)

	cfg := DefaultConfig()
	cfg.APIKeys = []string{testAdminKey}
	srv := NewServer(cfg, Dependencies{
		RegisterUser:            command.NewRegisterUserHandler(deps, 4),
		StartChallenge:          command.NewStartChallengeHandler(deps),
		UpdateChallengeProgress: command.NewUpdateChallengeProgressHandler(deps),
		CompleteChallenge:       command.NewCompleteChallengeHandler(deps),
		RedeemReward:            command.NewRedeemRewardHandler(deps),
		SubmitAnswer:            command.NewSubmitAnswerHandler(deps),
		UnlockAchievement:       command.NewUnlockAchievementHandler(deps),
		ApplyPenalty:            command.NewApplyPenaltyHandler(deps),
		Dashboard:               query.NewGetDashboardHandler(store, store, progress.NewLinearLevelPolicy(progress.DefaultXPPerLevel), 5),
		ActivityLog:             query.NewGetActivityLogHandler(recorder),
		UserProgress:            query.NewUserProgressHandler(store),
		Catalog:                 query.NewCatalogHandler(store),
		HealthChecker:           checker,
		Logger:                  logger.Nop(),
	})
	return &apiFixture{store: store, handler: srv.Handler()}
}

func (f *apiFixture) do(t *testing.T, method, path, userID string, body any, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (f *apiFixture) register(t *testing.T, name string) string {
	t.Helper()
	rec, env := f.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.User.ID
}

func (f *apiFixture) seedChallenge(t *testing.T, id string, xp int) {
	t.Helper()
	require.NoError(t, f.store.SaveChallenge(context.Background(), &catalog.Challenge{
		ID: id, Title: "Reading Sprint", Description: "Read three chapters",
		XPReward: xp, Category: "reading", Difficulty: 2, DurationDays: 3, IsActive: true,
	}))
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestServer_RequiresUserHeader(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec, env := f.do(t, http.MethodGet, "/api/v1/me/stats", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Code)
}

func TestServer_RegisterAndStats(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Ada")

	rec, env := f.do(t, http.MethodGet, "/api/v1/me/stats", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeData[progress.UserStats](t, env)
	assert.Equal(t, userID, stats.UserID)
	assert.Equal(t, 0, stats.Points)
	assert.Equal(t, 0, stats.XP)
	assert.Equal(t, 1, stats.Level)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_UnknownUserIsNotFound(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec, env := f.do(t, http.MethodGet, "/api/v1/me/dashboard", "ghost", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestServer_ChallengeLifecycle(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Grace")
	f.seedChallenge(t, "reading-sprint", 120)

	rec, env := f.do(t, http.MethodPost, "/api/v1/me/challenges", userID, map[string]string{"challengeId": "reading-sprint"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decodeData[challengeResponse](t, env)
	ucID := started.UserChallenge.ID
	require.NotEmpty(t, ucID)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/me/challenges", userID, map[string]string{"challengeId": "reading-sprint"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = f.do(t, http.MethodPatch, "/api/v1/me/challenges/"+ucID, userID, map[string]int{"progress": 40})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 40, decodeData[progress.UserChallenge](t, env).Progress)

	rec, _ = f.do(t, http.MethodPatch, "/api/v1/me/challenges/"+ucID, userID, map[string]int{"progress": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/me/challenges/"+ucID+"/complete", "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/api/v1/me/challenges/"+ucID+"/complete", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decodeData[completeChallengeResponse](t, env)
	assert.Equal(t, 120, done.XPEarned)
	assert.Equal(t, 120, done.Stats.Points)
	assert.True(t, done.UserChallenge.Completed)
	require.NotNil(t, done.Activity)
	assert.Equal(t, 120, done.Activity.XPDelta)

	rec, env = f.do(t, http.MethodPost, "/api/v1/me/challenges/"+ucID+"/complete", userID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_completed", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/me/challenges?status=completed", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]progress.ChallengeView](t, env), 1)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/me/challenges?status=bogus", userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RedeemInsufficientFundsReportsShortfall(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Linus")
	require.NoError(t, f.store.SaveReward(context.Background(), &catalog.Reward{
		ID: "movie-night", Title: "Movie night", Description: "Pick the film",
		PointsRequired: 50, Category: "fun", IsActive: true,
	}))

	rec, env := f.do(t, http.MethodPost, "/api/v1/me/rewards", userID, map[string]string{"rewardId": "movie-night"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "insufficient_funds", env.Error.Code)
	assert.EqualValues(t, 50, env.Error.Details["shortfall"])
	assert.EqualValues(t, 0, env.Error.Details["available"])

	rec, env = f.do(t, http.MethodGet, "/api/v1/me/rewards", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]progress.RewardView](t, env))
}

func TestServer_PenaltyRequiresAPIKey(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Barbara")
	f.seedChallenge(t, "warmup", 30)

	_, env := f.do(t, http.MethodPost, "/api/v1/me/challenges", userID, map[string]string{"challengeId": "warmup"})
	ucID := decodeData[challengeResponse](t, env).UserChallenge.ID
	rec, _ := f.do(t, http.MethodPost, "/api/v1/me/challenges/"+ucID+"/complete", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := map[string]any{"userId": userID, "points": 100, "reason": "missed homework"}

	rec, env = f.do(t, http.MethodPost, "/api/v1/penalties", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_api_key", env.Error.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/penalties", "", body, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/api/v1/penalties", "", body, "Authorization", "Bearer "+testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeData[applyPenaltyResponse](t, env)
	assert.Equal(t, 0, res.Stats.Points)
	assert.Equal(t, 0, res.Stats.XP)
	assert.Equal(t, -100, res.Activity.XPDelta)
	assert.Equal(t, -30, res.Activity.AppliedPoints)
}

func TestServer_ActivityNewestFirst(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Edsger")
	f.seedChallenge(t, "c1", 10)
	f.seedChallenge(t, "c2", 20)

	for _, id := range []string{"c1", "c2"} {
		_, env := f.do(t, http.MethodPost, "/api/v1/me/challenges", userID, map[string]string{"challengeId": id})
		ucID := decodeData[challengeResponse](t, env).UserChallenge.ID
		rec, _ := f.do(t, http.MethodPost, "/api/v1/me/challenges/"+ucID+"/complete", userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, env := f.do(t, http.MethodGet, "/api/v1/me/activity", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]activity.Entry](t, env)
	require.Len(t, entries, 2)
	assert.Equal(t, 20, entries[0].XPDelta)
	assert.Equal(t, 10, entries[1].XPDelta)
	assert.Equal(t, 2, env.Meta.TotalCount)

	rec, env = f.do(t, http.MethodGet, "/api/v1/me/activity?limit=1", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]activity.Entry](t, env), 1)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/me/activity?limit=abc", userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/me/dashboard", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeData[query.Dashboard](t, env)
	assert.Equal(t, "Edsger", dash.Name)
	assert.Equal(t, 30, dash.Stats.XP)
	assert.Equal(t, 2, dash.ChallengesCompleted)
	assert.Empty(t, dash.ActiveChallenges)
}

func TestServer_AnswersAndQuestions(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Alan")
	require.NoError(t, f.store.SaveQuestion(context.Background(), &catalog.Question{
		ID: "q1", Subject: "math", Text: "3 x 3 = ?", Options: []string{"6", "9", "12"},
		CorrectAnswer: 1, XPReward: 15, Difficulty: 1,
	}))

	rec, _ := f.do(t, http.MethodGet, "/api/v1/catalog/questions/math", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correctAnswer")
	assert.Contains(t, rec.Body.String(), "3 x 3 = ?")

	rec, _ = f.do(t, http.MethodPost, "/api/v1/me/answers", userID, map[string]any{"questionId": "q1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/me/answers", userID, map[string]any{"questionId": "q1", "selectedAnswer": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wrong := decodeData[submitAnswerResponse](t, env)
	assert.False(t, wrong.Answer.IsCorrect)
	assert.Zero(t, wrong.XPEarned)

	rec, env = f.do(t, http.MethodPost, "/api/v1/me/answers", userID, map[string]any{"questionId": "q1", "selectedAnswer": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	right := decodeData[submitAnswerResponse](t, env)
	assert.True(t, right.Answer.IsCorrect)
	assert.Equal(t, 15, right.XPEarned)
}

func TestServer_AchievementUnlockedOnce(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Margaret")
	require.NoError(t, f.store.SaveAchievement(context.Background(), &catalog.Achievement{
		ID: "first-steps", Title: "First Steps", Description: "Finish a challenge",
		Icon: "star", XPReward: 25, Rarity: catalog.RarityCommon,
	}))

	rec, _ := f.do(t, http.MethodPost, "/api/v1/me/achievements", userID, map[string]string{"achievementId": "first-steps"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := f.do(t, http.MethodPost, "/api/v1/me/achievements", userID, map[string]string{"achievementId": "first-steps"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_unlocked", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/me/achievements", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]progress.AchievementView](t, env), 1)
}

func TestServer_RejectsUnknownFields(t *testing.T) {
	f := newAPIFixture(t, nil)
	userID := f.register(t, "Ken")

	rec, env := f.do(t, http.MethodPost, "/api/v1/me/rewards", userID, map[string]any{"rewardId": "x", "cost": 0})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", env.Error.Code)
}

func TestServer_Health(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("store", func(ctx context.Context) error { return nil })
	f := newAPIFixture(t, checker)

	rec, _ := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.AddCheck("database", func(ctx context.Context) error { return errors.New("connection refused") })

	rec, _ = f.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", shared.ErrChallengeNotFound, http.StatusNotFound},
		{"forbidden", shared.ErrChallengeNotOwned, http.StatusForbidden},
		{"started", shared.ErrChallengeStarted, http.StatusConflict},
		{"exists", shared.ErrUserExists, http.StatusConflict},
		{"funds", shared.NewInsufficientFunds(10, 3), http.StatusUnprocessableEntity},
		{"invalid", shared.NewDomainError("x", "Validate", shared.ErrInvalidInput, "bad"), http.StatusBadRequest},
		{"storage", shared.WrapError("x", "Handle", shared.ErrStorage, "internal error", errors.New("disk")), http.StatusInternalServerError},
		{"unknown outcome", shared.WrapError("x", "Commit", shared.ErrOutcomeUnknown, "commit", errors.New("eof")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := classify(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}
