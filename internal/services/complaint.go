package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/domain/complaint"
	"github.com/yungbote/civicpulse-backend/internal/modules/triage"
	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"github.com/yungbote/civicpulse-backend/internal/realtime"
)

// CoinsPerComplaint is the reward credited for every accepted report.
const CoinsPerComplaint = 5

type EventPublisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

type CreateComplaintInput struct {
	Title       string
	Description string
	Location    string
	Latitude    *float64
	Longitude   *float64
	PhotoURL    string
}

type CreateComplaintResult struct {
	Complaint    types.ComplaintView `json:"complaint"`
	User         types.UserBalance   `json:"user"`
	CoinsAwarded int                 `json:"coins_awarded"`
	Coins        int                 `json:"coins"`
}

type ListComplaintsInput struct {
	Status     string
	Category   string
	AssignedTo *string
	Limit      int
	Offset     int
}

// UpdateComplaintInput carries an admin patch; nil fields are left untouched.
type UpdateComplaintInput struct {
	Status     *string
	AssignedTo *string
}

type ComplaintService interface {
	Create(ctx context.Context, in CreateComplaintInput) (*CreateComplaintResult, error)
	List(ctx context.Context, in ListComplaintsInput) ([]types.ComplaintView, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ComplaintView, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateComplaintInput) (*types.ComplaintView, error)
	Stats(ctx context.Context) (*types.StatusCounts, error)
}

type complaintService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	complaintRepo repos.ComplaintRepo
	pipeline      *triage.Pipeline
	events        EventPublisher
	now           func() time.Time
}

func NewComplaintService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	complaintRepo repos.ComplaintRepo,
	pipeline *triage.Pipeline,
	events EventPublisher,
) ComplaintService {
	serviceLog := log.With("service", "ComplaintService")
	if pipeline == nil {
		pipeline = triage.NewPipeline(serviceLog, nil)
	}
	return &complaintService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		complaintRepo: complaintRepo,
		pipeline:      pipeline,
		events:        events,
		now:           time.Now,
	}
}

type triageRecord struct {
	Category triage.Category `json:"category"`
	Score    triage.Score    `json:"score"`
}

func validateCreate(in *CreateComplaintInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	if in.Title == "" || in.Description == "" {
		return apierr.BadRequest("invalid_request", "title and description are required")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apierr.BadRequest("invalid_request", "latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apierr.BadRequest("invalid_request", "longitude must be between -180 and 180")
	}
	return nil
}

func (cs *complaintService) Create(ctx context.Context, in CreateComplaintInput) (*CreateComplaintResult, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	// Triage runs before the transaction so the model call never holds a connection.
	result := cs.pipeline.Run(ctx, triage.Submission{
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    in.PhotoURL,
	})
	triageJSON, err := json.Marshal(triageRecord{Category: result.Category, Score: result.Score})
	if err != nil {
		return nil, internalError(fmt.Errorf("encode triage: %w", err))
	}

	var (
		created *types.Complaint
		citizen *types.User
	)
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(ctx, cs.userRepo, tx, userID); err != nil {
			return err
		}
		rows, err := cs.complaintRepo.Create(ctx, tx, []*types.Complaint{{
			CitizenID:      userID,
			Title:          in.Title,
			Description:    in.Description,
			Location:       in.Location,
			Latitude:       in.Latitude,
			Longitude:      in.Longitude,
			PhotoURL:       in.PhotoURL,
			Category:       string(result.Category),
			Priority:       result.Score.Value,
			PriorityTier:   string(result.Score.Tier),
			PrioritySource: result.Score.Source,
			Triage:         datatypes.JSON(triageJSON),
			Status:         types.StatusReceived,
		}})
		if err != nil {
			return internalError(fmt.Errorf("create complaint: %w", err))
		}
		if err := cs.userRepo.IncrementCoins(ctx, tx, userID, CoinsPerComplaint); err != nil {
			return internalError(fmt.Errorf("award coins: %w", err))
		}
		citizen, err = loadUser(ctx, cs.userRepo, tx, userID)
		if err != nil {
			return err
		}
		created = rows[0]
		created.Citizen = citizen
		return nil
	})
	if err != nil {
		return nil, cs.logFailure("create", err)
	}

	observability.Current().IncComplaintCreated(created.Category, created.PriorityTier)
	cs.publish(ctx, realtime.EventComplaintCreated, created)
	cs.log.Info("Complaint created",
		"complaint_id", created.ID,
		"user_id", userID,
		"category", created.Category,
		"priority", created.Priority,
		"priority_source", created.PrioritySource,
	)

	return &CreateComplaintResult{
		Complaint:    types.NewComplaintView(created),
		User:         citizen.Balance(),
		CoinsAwarded: CoinsPerComplaint,
		Coins:        citizen.Coins,
	}, nil
}

func (cs *complaintService) List(ctx context.Context, in ListComplaintsInput) ([]types.ComplaintView, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	caller, err := loadUser(ctx, cs.userRepo, nil, userID)
	if err != nil {
		return nil, err
	}

	filter := repos.ComplaintListFilter{Limit: in.Limit, Offset: in.Offset}
	if in.Limit < 0 || in.Offset < 0 {
		return nil, apierr.BadRequest("invalid_request", "limit and offset must not be negative")
	}
	if caller.IsAdmin() {
		filter.Order = repos.ComplaintOrderPriority
		if s := strings.TrimSpace(in.Status); s != "" {
			status, ok := complaint.NormalizeStatus(s)
			if !ok {
				return nil, apierr.BadRequest("invalid_status", "unknown status "+s)
			}
			filter.Status = status
		}
		filter.Category = strings.TrimSpace(in.Category)
		if in.AssignedTo != nil {
			dept, ok := complaint.NormalizeDepartment(*in.AssignedTo)
			if !ok {
				return nil, apierr.BadRequest("invalid_department", "unknown department "+*in.AssignedTo)
			}
			filter.AssignedTo = &dept
		}
	} else {
		filter.Order = repos.ComplaintOrderNewest
		filter.CitizenID = &userID
	}

	rows, err := cs.complaintRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, cs.logFailure("list", internalError(fmt.Errorf("list complaints: %w", err)))
	}
	out := make([]types.ComplaintView, 0, len(rows))
	for _, c := range rows {
		out = append(out, types.NewComplaintView(c))
	}
	return out, nil
}

func (cs *complaintService) Get(ctx context.Context, id uuid.UUID) (*types.ComplaintView, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	caller, err := loadUser(ctx, cs.userRepo, nil, userID)
	if err != nil {
		return nil, err
	}
	c, err := cs.complaintRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repos.IsNotFound(err) {
			return nil, errComplaintNotFound
		}
		return nil, cs.logFailure("get", internalError(fmt.Errorf("get complaint: %w", err)))
	}
	// Other citizens' reports are indistinguishable from missing ones.
	if !caller.IsAdmin() && c.CitizenID != userID {
		return nil, errComplaintNotFound
	}
	v := types.NewComplaintView(c)
	return &v, nil
}

var errComplaintNotFound = apierr.NotFound("complaint_not_found", "complaint not found")

func (cs *complaintService) Update(ctx context.Context, id uuid.UUID, in UpdateComplaintInput) (*types.ComplaintView, error) {
	if _, err := cs.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.Status == nil && in.AssignedTo == nil {
		return nil, apierr.BadRequest("invalid_request", "status or assigned_to is required")
	}

	updates := map[string]interface{}{}
	var newStatus string
	if in.Status != nil {
		status, ok := complaint.NormalizeStatus(*in.Status)
		if !ok {
			return nil, apierr.BadRequest("invalid_status", "status must be one of "+strings.Join(complaint.Statuses(), ", "))
		}
		newStatus = status
		updates["status"] = status
	}
	if in.AssignedTo != nil {
		dept, ok := complaint.NormalizeDepartment(*in.AssignedTo)
		if !ok {
			return nil, apierr.BadRequest("invalid_department", "unknown department "+*in.AssignedTo)
		}
		if dept == "" {
			updates["assigned_to"] = nil
		} else {
			updates["assigned_to"] = dept
		}
	}

	var updated *types.Complaint
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := cs.complaintRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repos.IsNotFound(err) {
				return errComplaintNotFound
			}
			return internalError(fmt.Errorf("load complaint: %w", err))
		}
		if newStatus != "" && newStatus != current.Status {
			if newStatus == types.StatusResolved {
				updates["resolved_at"] = cs.now().UTC()
			} else if current.Status == types.StatusResolved {
				updates["resolved_at"] = nil
			}
		}
		if err := cs.complaintRepo.UpdateFields(ctx, tx, id, updates); err != nil {
			if repos.IsNotFound(err) {
				return errComplaintNotFound
			}
			return internalError(fmt.Errorf("update complaint: %w", err))
		}
		updated, err = cs.complaintRepo.GetByID(ctx, tx, id)
		if err != nil {
			return internalError(fmt.Errorf("reload complaint: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, cs.logFailure("update", err)
	}

	observability.Current().IncComplaintUpdated(updated.Status)
	cs.publish(ctx, realtime.EventComplaintUpdated, updated)
	cs.log.Info("Complaint updated", "complaint_id", updated.ID, "status", updated.Status)

	v := types.NewComplaintView(updated)
	return &v, nil
}

func (cs *complaintService) Stats(ctx context.Context) (*types.StatusCounts, error) {
	if _, err := cs.requireAdmin(ctx); err != nil {
		return nil, err
	}
	counts, err := cs.complaintRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, cs.logFailure("stats", internalError(fmt.Errorf("count complaints: %w", err)))
	}
	out := &types.StatusCounts{
		Received:   counts[types.StatusReceived],
		InProgress: counts[types.StatusInProgress],
		Resolved:   counts[types.StatusResolved],
	}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}

// requireAdmin re-reads the role from the database instead of trusting the token.
func (cs *complaintService) requireAdmin(ctx context.Context) (*types.User, error) {
	userID, err := requestUserID(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	caller, err := loadUser(ctx, cs.userRepo, nil, userID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, errAdminOnly
	}
	return caller, nil
}

func (cs *complaintService) publish(ctx context.Context, eventType string, c *types.Complaint) {
	if cs.events == nil {
		return
	}
	ev := realtime.NewEvent(eventType)
	ev.ComplaintID = c.ID
	ev.CitizenID = c.CitizenID
	ev.Status = c.Status
	ev.Category = c.Category
	ev.Priority = c.Priority
	ev.AssignedTo = c.AssignedTo
	ev.ResolvedAt = c.ResolvedAt

	outcome := "ok"
	if err := cs.events.Publish(ctx, ev); err != nil {
		outcome = "error"
		cs.log.Warn("Failed to publish complaint event", "type", eventType, "complaint_id", c.ID, "error", err)
	}
	observability.Current().IncEventPublished(eventType, outcome)
}

func (cs *complaintService) logFailure(op string, err error) error {
	if ae, ok := apierr.As(err); ok && ae.Status < 500 {
		return err
	}
	cs.log.Error("Complaint operation failed", "op", op, "error", err)
	return err
}
