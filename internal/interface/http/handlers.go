package http

import (
	"net/http"
	"strings"

	"github.com/learnquest/ledger/internal/application/command"
	"github.com/learnquest/ledger/internal/application/query"
	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    "LearnQuest ledger API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":    "/health",
			"dashboard": "/api/v1/me/dashboard",
			"activity":  "/api/v1/me/activity",
			"catalog":   "/api/v1/catalog/challenges",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

// handleReady handles the readiness endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

type registerUserRequest struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`
}

type registerUserResponse struct {
	User  *user.User          `json:"user"`
	Stats *progress.UserStats `json:"stats"`
}

// handleRegisterUser handles POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		ID:              req.ID,
		Username:        req.Username,
		Password:        req.Password,
		DisplayName:     req.Name,
		Email:           req.Email,
		ProfileImageURL: req.ProfileImageURL,
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "register_user", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, registerUserResponse{User: res.User, Stats: res.Stats})
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS, DASHBOARD & ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStats handles GET /api/v1/me/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := s.deps.UserProgress.Stats(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, "get_stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// handleGetDashboard handles GET /api/v1/me/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	dash, err := s.deps.Dashboard.Handle(r.Context(), query.GetDashboardQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, "get_dashboard", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dash)
}

// handleGetActivity handles GET /api/v1/me/activity?limit=N
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request, userID string) {
	limit, ok := getQueryParamInt(r, "limit", s.config.DefaultActivityLimit)
	if !ok || limit < 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer")
		return
	}

	entries, err := s.deps.ActivityLog.Handle(r.Context(), query.GetActivityLogQuery{UserID: userID, Limit: limit})
	if err != nil {
		s.writeDomainError(w, r, "get_activity", err)
		return
	}
	if entries == nil {
		entries = []*activity.Entry{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, entries, &ResponseMeta{TotalCount: len(entries)})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGES
// ══════════════════════════════════════════════════════════════════════════════

type startChallengeRequest struct {
	ChallengeID string `json:"challengeId"`
}

type updateProgressRequest struct {
	Progress *int `json:"progress"`
}

type challengeResponse struct {
	UserChallenge *progress.UserChallenge `json:"userChallenge"`
	Challenge     *catalog.Challenge      `json:"challenge"`
}

type completeChallengeResponse struct {
	UserChallenge *progress.UserChallenge `json:"userChallenge"`
	Challenge     *catalog.Challenge      `json:"challenge"`
	Stats         *progress.UserStats     `json:"stats"`
	Activity      *activity.Entry         `json:"activity"`
	XPEarned      int                     `json:"xpEarned"`
	LeveledUp     bool                    `json:"leveledUp"`
}

// handleListChallenges handles GET /api/v1/me/challenges?status=active|completed
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request, userID string) {
	var filter progress.ChallengeFilter
	switch strings.ToLower(r.URL.Query().Get("status")) {
	case "", "all":
		filter = progress.ChallengesAll
	case "active":
		filter = progress.ChallengesActive
	case "completed":
		filter = progress.ChallengesCompleted
	default:
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", "status must be one of all, active, completed")
		return
	}

	views, err := s.deps.UserProgress.Challenges(r.Context(), userID, filter)
	if err != nil {
		s.writeDomainError(w, r, "list_challenges", err)
		return
	}
	if views == nil {
		views = []*progress.ChallengeView{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, views, &ResponseMeta{TotalCount: len(views)})
}

// handleStartChallenge handles POST /api/v1/me/challenges
func (s *Server) handleStartChallenge(w http.ResponseWriter, r *http.Request, userID string) {
	var req startChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.StartChallenge.Handle(r.Context(), command.StartChallengeCommand{
		UserID:        userID,
		ChallengeID:   req.ChallengeID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "start_challenge", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, challengeResponse{UserChallenge: res.UserChallenge, Challenge: res.Challenge})
}

// handleUpdateChallengeProgress handles PATCH /api/v1/me/challenges/{id}
func (s *Server) handleUpdateChallengeProgress(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Progress == nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", "progress is required")
		return
	}

	uc, err := s.deps.UpdateChallengeProgress.Handle(r.Context(), command.UpdateChallengeProgressCommand{
		UserID:          userID,
		UserChallengeID: r.PathValue("id"),
		Progress:        *req.Progress,
	})
	if err != nil {
		s.writeDomainError(w, r, "update_challenge_progress", err)
		return
	}
	writeJSON(w, r, http.StatusOK, uc)
}

// handleCompleteChallenge handles POST /api/v1/me/challenges/{id}/complete
func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request, userID string) {
	res, err := s.deps.CompleteChallenge.Handle(r.Context(), command.CompleteChallengeCommand{
		UserID:          userID,
		UserChallengeID: r.PathValue("id"),
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "complete_challenge", err)
		return
	}
	writeJSON(w, r, http.StatusOK, completeChallengeResponse{
		UserChallenge: res.UserChallenge,
		Challenge:     res.Challenge,
		Stats:         res.Stats,
		Activity:      res.Entry,
		XPEarned:      res.XPEarned,
		LeveledUp:     res.LeveledUp,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARDS
// ══════════════════════════════════════════════════════════════════════════════

type redeemRewardRequest struct {
	RewardID string `json:"rewardId"`
}

type redeemRewardResponse struct {
	UserReward *progress.UserReward `json:"userReward"`
	Reward     *catalog.Reward      `json:"reward"`
	Stats      *progress.UserStats  `json:"stats"`
	Activity   *activity.Entry      `json:"activity"`
}

// handleListRewards handles GET /api/v1/me/rewards
func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request, userID string) {
	views, err := s.deps.UserProgress.Rewards(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, "list_rewards", err)
		return
	}
	if views == nil {
		views = []*progress.RewardView{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, views, &ResponseMeta{TotalCount: len(views)})
}

// handleRedeemReward handles POST /api/v1/me/rewards
func (s *Server) handleRedeemReward(w http.ResponseWriter, r *http.Request, userID string) {
	var req redeemRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.RedeemReward.Handle(r.Context(), command.RedeemRewardCommand{
		UserID:        userID,
		RewardID:      req.RewardID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "redeem_reward", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, redeemRewardResponse{
		UserReward: res.UserReward,
		Reward:     res.Reward,
		Stats:      res.Stats,
		Activity:   res.Entry,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS & ANSWERS
// ══════════════════════════════════════════════════════════════════════════════

type unlockAchievementRequest struct {
	AchievementID string `json:"achievementId"`
}

type unlockAchievementResponse struct {
	UserAchievement *progress.UserAchievement `json:"userAchievement"`
	Achievement     *catalog.Achievement      `json:"achievement"`
	Stats           *progress.UserStats       `json:"stats"`
	Activity        *activity.Entry           `json:"activity"`
	LeveledUp       bool                      `json:"leveledUp"`
}

type submitAnswerRequest struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer *int   `json:"selectedAnswer"`
}

type submitAnswerResponse struct {
	Answer   *progress.UserAnswer `json:"answer"`
	Stats    *progress.UserStats  `json:"stats,omitempty"`
	Activity *activity.Entry      `json:"activity,omitempty"`
	XPEarned int                  `json:"xpEarned"`
}

// handleListAchievements handles GET /api/v1/me/achievements
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request, userID string) {
	views, err := s.deps.UserProgress.Achievements(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, "list_achievements", err)
		return
	}
	if views == nil {
		views = []*progress.AchievementView{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, views, &ResponseMeta{TotalCount: len(views)})
}

// handleUnlockAchievement handles POST /api/v1/me/achievements
func (s *Server) handleUnlockAchievement(w http.ResponseWriter, r *http.Request, userID string) {
	var req unlockAchievementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.UnlockAchievement.Handle(r.Context(), command.UnlockAchievementCommand{
		UserID:        userID,
		AchievementID: req.AchievementID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "unlock_achievement", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, unlockAchievementResponse{
		UserAchievement: res.UserAchievement,
		Achievement:     res.Achievement,
		Stats:           res.Stats,
		Activity:        res.Entry,
		LeveledUp:       res.LeveledUp,
	})
}

// handleSubmitAnswer handles POST /api/v1/me/answers
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, userID string) {
	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.SelectedAnswer == nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_input", "selectedAnswer is required")
		return
	}

	res, err := s.deps.SubmitAnswer.Handle(r.Context(), command.SubmitAnswerCommand{
		UserID:         userID,
		QuestionID:     req.QuestionID,
		SelectedAnswer: *req.SelectedAnswer,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "submit_answer", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, submitAnswerResponse{
		Answer:   res.Answer,
		Stats:    res.Stats,
		Activity: res.Entry,
		XPEarned: res.XPEarned,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PENALTIES (ADMIN)
// ══════════════════════════════════════════════════════════════════════════════

type applyPenaltyRequest struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

type applyPenaltyResponse struct {
	Stats    *progress.UserStats `json:"stats"`
	Activity *activity.Entry     `json:"activity"`
}

// handleApplyPenalty handles POST /api/v1/penalties
func (s *Server) handleApplyPenalty(w http.ResponseWriter, r *http.Request) {
	if s.deps.ApplyPenalty == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Penalties are disabled")
		return
	}

	var req applyPenaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := s.deps.ApplyPenalty.Handle(r.Context(), command.ApplyPenaltyCommand{
		UserID:        req.UserID,
		Points:        req.Points,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "apply_penalty", err)
		return
	}
	writeJSON(w, r, http.StatusOK, applyPenaltyResponse{Stats: res.Stats, Activity: res.Entry})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// handleCatalogChallenges handles GET /api/v1/catalog/challenges
func (s *Server) handleCatalogChallenges(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.Challenges(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "catalog_challenges", err)
		return
	}
	if items == nil {
		items = []*catalog.Challenge{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// handleCatalogRewards handles GET /api/v1/catalog/rewards
func (s *Server) handleCatalogRewards(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.Rewards(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "catalog_rewards", err)
		return
	}
	if items == nil {
		items = []*catalog.Reward{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// handleCatalogAchievements handles GET /api/v1/catalog/achievements
func (s *Server) handleCatalogAchievements(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.Achievements(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "catalog_achievements", err)
		return
	}
	if items == nil {
		items = []*catalog.Achievement{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// handleCatalogQuestions handles GET /api/v1/catalog/questions/{subject}
func (s *Server) handleCatalogQuestions(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Catalog.Questions(r.Context(), r.PathValue("subject"))
	if err != nil {
		s.writeDomainError(w, r, "catalog_questions", err)
		return
	}
	if items == nil {
		items = []*query.QuestionView{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}
