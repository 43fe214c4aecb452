package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// UserIDHeader carries the authenticated user id set by the identity provider.
const UserIDHeader = "X-User-ID"

// requireUser rejects requests without an identity and passes the user id on.
func (s *Server) requireUser(h func(http.ResponseWriter, *http.Request, string)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			writeJSONError(w, r, http.StatusUnauthorized, "unauthenticated", "Missing "+UserIDHeader+" header")
			return
		}
		h(w, r, userID)
	})
}

// writeDomainError maps ledger errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var funds *shared.InsufficientFundsError
	if errors.As(err, &funds) {
		writeJSONErrorWithDetails(w, r, http.StatusUnprocessableEntity, "insufficient_funds",
			"Not enough points", map[string]any{
				"required":  funds.Required,
				"available": funds.Available,
				"shortfall": funds.Shortfall(),
			})
		return
	}

	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), s.logger).Error("request failed",
			logger.Operation(op),
			logger.Err(err))
		message := "An unexpected error occurred"
		if errors.Is(err, shared.ErrOutcomeUnknown) {
			message = "The outcome of the operation is unknown; check the current state before retrying"
		}
		writeJSONError(w, r, status, code, message)
		return
	}

	writeJSONError(w, r, status, code, publicMessage(err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrOutcomeUnknown):
		return http.StatusInternalServerError, "outcome_unknown"
	case errors.Is(err, shared.ErrStorage):
		return http.StatusInternalServerError, "internal_error"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case shared.IsConflict(err):
		return http.StatusConflict, conflictCode(err)
	case errors.Is(err, shared.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, shared.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, shared.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, shared.ErrAlreadyUnlocked):
		return "already_unlocked"
	default:
		return "already_exists"
	}
}

// publicMessage returns the human part of a domain error, never the chain.
func publicMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return http.StatusText(http.StatusBadRequest)
}
