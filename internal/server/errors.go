package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cityrun/quest/internal/quest"
)

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
// Idempotence violations get 409 so clients can show "already done" instead
// of "invalid input". Configuration defects and unclassified errors are
// logged with full context and surface as a generic 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quest.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quest.ErrForbidden),
		errors.Is(err, quest.ErrQuestionNotAssigned),
		errors.Is(err, quest.ErrLanguageMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, quest.ErrAlreadyRewarded),
		errors.Is(err, quest.ErrAlreadyMarked),
		errors.Is(err, quest.ErrInsufficientCoins),
		errors.Is(err, quest.ErrCannotMarkUnsolved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, quest.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, quest.ErrConfiguration):
		logger.Error("configuration error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		logger.Error("unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
