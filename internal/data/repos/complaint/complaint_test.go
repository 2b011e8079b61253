package complaint

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/civicpulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
)

func TestComplaintRepoCreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewComplaintRepo(db, testutil.Logger(t))

	citizen := testutil.SeedUser(t, ctx, tx, "c-"+uuid.NewString()+"@example.com", types.RoleCitizen)

	lat, lng := 28.6139, 77.209
	created, err := repo.Create(ctx, tx, []*types.Complaint{{
		CitizenID:      citizen.ID,
		Title:          "Streetlight out",
		Description:    "Lamp near the bus stop is dark",
		Location:       "MG Road",
		Latitude:       &lat,
		Longitude:      &lng,
		Category:       "Lighting",
		Priority:       8,
		PriorityTier:   "high",
		PrioritySource: "llm",
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Status != types.StatusReceived {
		t.Fatalf("Create: expected default status, got %q", created[0].Status)
	}

	got, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Citizen == nil || got.Citizen.Email != citizen.Email {
		t.Fatalf("GetByID: citizen not preloaded: %+v", got.Citizen)
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Fatalf("GetByID: latitude lost: %v", got.Latitude)
	}

	if _, err := repo.GetByID(ctx, tx, uuid.New()); !IsNotFound(err) {
		t.Fatalf("GetByID (missing): expected not found, got %v", err)
	}
}

func TestComplaintRepoListOrderingAndFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewComplaintRepo(db, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "a-"+uuid.NewString()+"@example.com", types.RoleCitizen)
	bob := testutil.SeedUser(t, ctx, tx, "b-"+uuid.NewString()+"@example.com", types.RoleCitizen)

	base := time.Now().Add(-time.Hour).UTC()
	low := testutil.SeedComplaint(t, ctx, tx, alice.ID, "low", 2)
	high := testutil.SeedComplaint(t, ctx, tx, alice.ID, "high", 9)
	mid := testutil.SeedComplaint(t, ctx, tx, bob.ID, "mid", 5)
	for i, c := range []*types.Complaint{low, high, mid} {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := tx.Model(&types.Complaint{}).Where("id = ?", c.ID).Update("created_at", at).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}

	all, err := repo.List(ctx, tx, ListFilter{Order: OrderPriority})
	if err != nil {
		t.Fatalf("List priority: %v", err)
	}
	if len(all) != 3 || all[0].ID != high.ID || all[1].ID != mid.ID || all[2].ID != low.ID {
		t.Fatalf("List priority: unexpected order: %v", titles(all))
	}

	own, err := repo.List(ctx, tx, ListFilter{CitizenID: &alice.ID, Order: OrderNewest})
	if err != nil {
		t.Fatalf("List own: %v", err)
	}
	if len(own) != 2 || own[0].ID != high.ID || own[1].ID != low.ID {
		t.Fatalf("List own: unexpected order: %v", titles(own))
	}
	if own[0].Citizen == nil || own[0].Citizen.ID != alice.ID {
		t.Fatalf("List own: citizen not preloaded")
	}

	if err := repo.UpdateFields(ctx, tx, mid.ID, map[string]interface{}{
		"status":      types.StatusInProgress,
		"assigned_to": "roads",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	inProgress, err := repo.List(ctx, tx, ListFilter{Status: types.StatusInProgress})
	if err != nil || len(inProgress) != 1 || inProgress[0].ID != mid.ID {
		t.Fatalf("List status filter: err=%v got=%v", err, titles(inProgress))
	}
	roads, err := repo.List(ctx, tx, ListFilter{AssignedTo: testutil.PtrString("roads")})
	if err != nil || len(roads) != 1 {
		t.Fatalf("List assigned filter: err=%v got=%v", err, titles(roads))
	}
	unassigned, err := repo.List(ctx, tx, ListFilter{AssignedTo: testutil.PtrString("")})
	if err != nil || len(unassigned) != 2 {
		t.Fatalf("List unassigned filter: err=%v got=%v", err, titles(unassigned))
	}
	paged, err := repo.List(ctx, tx, ListFilter{Order: OrderPriority, Limit: 1, Offset: 1})
	if err != nil || len(paged) != 1 || paged[0].ID != mid.ID {
		t.Fatalf("List paging: err=%v got=%v", err, titles(paged))
	}

	counts, err := repo.CountByStatus(ctx, tx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.StatusReceived] != 2 || counts[types.StatusInProgress] != 1 || counts[types.StatusResolved] != 0 {
		t.Fatalf("CountByStatus: unexpected counts %v", counts)
	}

	if err := repo.UpdateFields(ctx, tx, uuid.New(), map[string]interface{}{"status": types.StatusResolved}); !IsNotFound(err) {
		t.Fatalf("UpdateFields (missing): expected not found, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -4: DefaultLimit, 20: 20, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func titles(cs []*types.Complaint) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Title)
	}
	return out
}
