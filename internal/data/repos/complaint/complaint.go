package complaint

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type Order string

const (
	// OrderPriority puts the most urgent reports first; ties go to the newest.
	OrderPriority Order = "priority"
	// OrderNewest is plain reverse-chronological order.
	OrderNewest Order = "newest"

	DefaultLimit = 100
	MaxLimit     = 500
)

type ListFilter struct {
	CitizenID  *uuid.UUID
	Status     string
	Category   string
	AssignedTo *string
	Order      Order
	Limit      int
	Offset     int
}

type ComplaintRepo interface {
	Create(ctx context.Context, tx *gorm.DB, complaints []*types.Complaint) ([]*types.Complaint, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Complaint, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Complaint, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	CountByStatus(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
}

type complaintRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComplaintRepo(db *gorm.DB, baseLog *logger.Logger) ComplaintRepo {
	return &complaintRepo{db: db, log: baseLog.With("repo", "ComplaintRepo")}
}

func (cr *complaintRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = cr.db
	}
	return tx.WithContext(ctx)
}

func (cr *complaintRepo) Create(ctx context.Context, tx *gorm.DB, complaints []*types.Complaint) ([]*types.Complaint, error) {
	if len(complaints) == 0 {
		return []*types.Complaint{}, nil
	}

	if err := cr.conn(ctx, tx).Omit("Citizen").Create(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

// GetByID returns gorm.ErrRecordNotFound when the complaint does not exist.
func (cr *complaintRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Complaint, error) {
	var out types.Complaint
	if err := cr.conn(ctx, tx).
		Preload("Citizen").
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (cr *complaintRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Complaint, error) {
	q := cr.conn(ctx, tx).Model(&types.Complaint{}).Preload("Citizen")
	if filter.CitizenID != nil {
		q = q.Where("citizen_id = ?", *filter.CitizenID)
	}
	if s := strings.TrimSpace(filter.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if filter.AssignedTo != nil {
		if *filter.AssignedTo == "" {
			q = q.Where("assigned_to IS NULL")
		} else {
			q = q.Where("assigned_to = ?", *filter.AssignedTo)
		}
	}

	switch filter.Order {
	case OrderPriority:
		q = q.Order("priority DESC").Order("created_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	q = q.Limit(clampLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var results []*types.Complaint
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *complaintRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := cr.conn(ctx, tx).
		Model(&types.Complaint{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (cr *complaintRepo) CountByStatus(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := cr.conn(ctx, tx).
		Model(&types.Complaint{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// IsNotFound reports whether err came from a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
