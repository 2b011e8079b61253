package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
)

const pgUniqueViolation = "23505"

var (
	errUnauthenticated = apierr.Unauthorized("unauthorized", "authentication required")
	errAdminOnly       = apierr.Forbidden("forbidden", "admin access required")
)

// isUniqueViolation reports duplicate-key failures from either supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func internalError(err error) *apierr.Error {
	return apierr.New(http.StatusInternalServerError, "internal_error", err)
}

func requestUserID(rd *ctxutil.RequestData) (uuid.UUID, error) {
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errUnauthenticated
	}
	return rd.UserID, nil
}
