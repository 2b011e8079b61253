package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	"github.com/yungbote/civicpulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/modules/triage"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/civicpulse-backend/internal/realtime"
)

const testSecret = "test-secret"

type testEnv struct {
	db            *gorm.DB
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	complaintRepo repos.ComplaintRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:            db,
		userRepo:      repos.NewUserRepo(db, log),
		userTokenRepo: repos.NewUserTokenRepo(db, log),
		complaintRepo: repos.NewComplaintRepo(db, log),
	}
}

func (e *testEnv) authService(t *testing.T) AuthService {
	t.Helper()
	return NewAuthService(e.db, testutil.Logger(t), e.userRepo, e.userTokenRepo, testSecret, 7*24*time.Hour, 30*24*time.Hour)
}

func (e *testEnv) complaintService(t *testing.T, scorer triage.PriorityScorer, events EventPublisher) ComplaintService {
	t.Helper()
	log := testutil.Logger(t)
	return NewComplaintService(e.db, log, e.userRepo, e.complaintRepo, triage.NewPipeline(log, scorer), events)
}

func (e *testEnv) seedUser(t *testing.T, email, role string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, email, role)
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

type fixedScorer struct {
	value int
	err   error
}

func (s fixedScorer) Score(context.Context, triage.Submission) (triage.Score, error) {
	if s.err != nil {
		return triage.Score{}, s.err
	}
	return triage.Score{Value: s.value, Tier: triage.TierFor(s.value), Source: triage.SourceLLM, Raw: "answer"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func ptr[T any](v T) *T { return &v }


func mustUUID(s string) uuid.UUID { return uuid.MustParse(s) }
