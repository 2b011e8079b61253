package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	return loadUser(ctx, us.userRepo, nil, userID)
}

// loadUser fetches the caller's current row; a deleted account is treated as
// unauthenticated.
func loadUser(ctx context.Context, userRepo repos.UserRepo, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	users, err := userRepo.GetByIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return nil, internalError(fmt.Errorf("load user: %w", err))
	}
	if len(users) == 0 || users[0] == nil {
		return nil, apierr.Unauthorized("unauthorized", "user not found")
	}
	return users[0], nil
}
