package user

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	// GetByEmailOrMobile returns every account holding either identifier.
	GetByEmailOrMobile(ctx context.Context, tx *gorm.DB, email, mobile string) ([]*types.User, error)
	IncrementCoins(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) error
	UpdateRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = ur.db
	}
	return tx.WithContext(ctx)
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := ur.conn(ctx, tx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	results := []*types.User{}
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := ur.conn(ctx, tx).Where("id IN ?", userIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	results := []*types.User{}
	if len(userEmails) == 0 {
		return results, nil
	}
	if err := ur.conn(ctx, tx).Where("email IN ?", userEmails).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmailOrMobile(ctx context.Context, tx *gorm.DB, email, mobile string) ([]*types.User, error) {
	results := []*types.User{}
	if email == "" && mobile == "" {
		return results, nil
	}
	if err := ur.conn(ctx, tx).Where("email = ? OR mobile = ?", email, mobile).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// IncrementCoins adds delta in SQL so concurrent rewards never lose updates.
func (ur *userRepo) IncrementCoins(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) error {
	return ur.updateOne(ctx, tx, userID, "coins", gorm.Expr("coins + ?", delta))
}

func (ur *userRepo) UpdateRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role string) error {
	return ur.updateOne(ctx, tx, userID, "role", role)
}

// updateOne returns gorm.ErrRecordNotFound when no row matched.
func (ur *userRepo) updateOne(ctx context.Context, tx *gorm.DB, userID uuid.UUID, column string, value interface{}) error {
	res := ur.conn(ctx, tx).Model(&types.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
