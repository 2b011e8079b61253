package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:       id,
		Name:     "Test Citizen",
		Email:    email,
		Mobile:   fmt.Sprintf("9%09d", id.ID()%1000000000),
		Password: "pw",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedComplaint(tb testing.TB, ctx context.Context, tx *gorm.DB, citizenID uuid.UUID, title string, priority int) *types.Complaint {
	tb.Helper()
	c := &types.Complaint{
		ID:             uuid.New(),
		CitizenID:      citizenID,
		Title:          title,
		Description:    title + " description",
		Category:       "Other",
		Priority:       priority,
		PriorityTier:   "medium",
		PrioritySource: "default",
		Status:         types.StatusReceived,
	}
	if err := tx.WithContext(ctx).Omit("Citizen").Create(c).Error; err != nil {
		tb.Fatalf("seed complaint: %v", err)
	}
	return c
}

func PtrString(v string) *string { return &v }
