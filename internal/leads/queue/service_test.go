package queue

import (
	"context"
	"sort"
	"testing"
	"time"

	"medleads_backend/internal/leads/domain"
	"medleads_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory LeadsRepository covering the queue paths.
// Unused interface methods panic through the embedded nil interface.
type fakeRepo struct {
	repository.LeadsRepository

	leads       map[uuid.UUID]*repository.Lead
	claimDenied map[uuid.UUID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:       map[uuid.UUID]*repository.Lead{},
		claimDenied: map[uuid.UUID]bool{},
	}
}

func (f *fakeRepo) add(score, timesRecycled int, age time.Duration) uuid.UUID {
	id := uuid.New()
	f.leads[id] = &repository.Lead{
		ID:            id,
		Score:         score,
		Status:        domain.StatusNew,
		TimesRecycled: timesRecycled,
		CreatedAt:     time.Now().Add(-age),
	}
	return id
}

func (f *fakeRepo) ListEligible(_ context.Context, limit, maxRecyclingAttempts int) ([]repository.Lead, error) {
	eligible := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.AssignedUserID != nil || !domain.IsDistributable(lead.Status) {
			continue
		}
		if lead.TimesRecycled >= maxRecyclingAttempts {
			continue
		}
		eligible = append(eligible, *lead)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (f *fakeRepo) ClaimLead(_ context.Context, leadID, agentID uuid.UUID, maxRecyclingAttempts int) (repository.Lead, bool, error) {
	if f.claimDenied[leadID] {
		return repository.Lead{}, false, nil
	}

	lead, ok := f.leads[leadID]
	if !ok || lead.AssignedUserID != nil || !domain.IsDistributable(lead.Status) ||
		lead.TimesRecycled >= maxRecyclingAttempts {
		return repository.Lead{}, false, nil
	}

	now := time.Now()
	lead.AssignedUserID = &agentID
	lead.AssignedAt = &now
	lead.Status = domain.StatusNew
	return *lead, true, nil
}

func TestPopClaimsBestFirst(t *testing.T) {
	repo := newFakeRepo()
	repo.add(70, 0, time.Hour)
	best := repo.add(90, 0, time.Hour)
	second := repo.add(80, 0, time.Hour)

	agentID := uuid.New()
	svc := New(repo, 3, nil)

	claimed, err := svc.Pop(context.Background(), agentID, 2)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d leads, want 2", len(claimed))
	}
	if claimed[0].ID != best || claimed[1].ID != second {
		t.Error("leads not claimed in score order")
	}
	for _, lead := range claimed {
		if lead.AssignedUserID == nil || *lead.AssignedUserID != agentID {
			t.Error("claimed lead not assigned to the requesting agent")
		}
		if lead.Status != domain.StatusNew {
			t.Errorf("claimed lead status = %s, want NEW", lead.Status)
		}
	}
}

func TestPopOldestWinsOnEqualScore(t *testing.T) {
	repo := newFakeRepo()
	newer := repo.add(80, 0, time.Hour)
	older := repo.add(80, 0, 48*time.Hour)

	svc := New(repo, 3, nil)

	claimed, err := svc.Pop(context.Background(), uuid.New(), 1)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != older {
		t.Errorf("got lead %v, want the older lead %v (not %v)", claimed[0].ID, older, newer)
	}
}

func TestPopSkipsLostRaces(t *testing.T) {
	repo := newFakeRepo()
	contested := repo.add(95, 0, time.Hour)
	fallback := repo.add(60, 0, time.Hour)
	repo.claimDenied[contested] = true

	svc := New(repo, 3, nil)

	claimed, err := svc.Pop(context.Background(), uuid.New(), 1)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("claimed %d leads, want 1", len(claimed))
	}
	if claimed[0].ID != fallback {
		t.Error("a lost claim race should fall through to the next candidate")
	}
}

func TestPopExcludesExhaustedRecyclingBudget(t *testing.T) {
	repo := newFakeRepo()
	repo.add(99, 3, time.Hour)
	inBudget := repo.add(50, 2, time.Hour)

	svc := New(repo, 3, nil)

	claimed, err := svc.Pop(context.Background(), uuid.New(), 2)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != inBudget {
		t.Error("leads at the recycling limit must never be distributed")
	}
}

func TestPopShortSupplyReturnsFewer(t *testing.T) {
	repo := newFakeRepo()
	repo.add(80, 0, time.Hour)

	svc := New(repo, 3, nil)

	claimed, err := svc.Pop(context.Background(), uuid.New(), 5)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(claimed) != 1 {
		t.Errorf("claimed %d leads, want 1; short supply is not an error", len(claimed))
	}
}

func TestPreviewDoesNotClaim(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(80, 0, time.Hour)

	svc := New(repo, 3, nil)

	leads, err := svc.Preview(context.Background(), 10)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("previewed %d leads, want 1", len(leads))
	}
	if repo.leads[id].AssignedUserID != nil {
		t.Error("preview must not claim leads")
	}
}
