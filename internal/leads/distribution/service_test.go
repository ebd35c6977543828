package distribution

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"medleads_backend/internal/leads/domain"
	"medleads_backend/internal/leads/queue"
	"medleads_backend/internal/leads/repository"
	"medleads_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory LeadsRepository for distribution tests. A mutex
// guards the maps because RedistributeAll calls it from several goroutines.
type fakeRepo struct {
	repository.LeadsRepository

	mu         sync.Mutex
	leads      map[uuid.UUID]*repository.Lead
	agents     map[uuid.UUID]*repository.Agent
	activities []repository.Activity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:  map[uuid.UUID]*repository.Lead{},
		agents: map[uuid.UUID]*repository.Agent{},
	}
}

func (f *fakeRepo) addAgent(quota int, active bool, role domain.AgentRole) uuid.UUID {
	id := uuid.New()
	f.agents[id] = &repository.Agent{
		ID:          id,
		Role:        role,
		IsActive:    active,
		TargetQuota: quota,
	}
	return id
}

func (f *fakeRepo) addEligible(score int) uuid.UUID {
	id := uuid.New()
	f.leads[id] = &repository.Lead{
		ID:        id,
		Score:     score,
		Status:    domain.StatusNew,
		CreatedAt: time.Now(),
	}
	return id
}

func (f *fakeRepo) addAssigned(agentID uuid.UUID, status domain.LeadStatus) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	f.leads[id] = &repository.Lead{
		ID:             id,
		Status:         status,
		AssignedUserID: &agentID,
		AssignedAt:     &now,
		CreatedAt:      now,
	}
	return id
}

func (f *fakeRepo) GetLeadByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return *lead, nil
}

func (f *fakeRepo) GetAgentByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	agent, ok := f.agents[id]
	if !ok {
		return repository.Agent{}, repository.ErrAgentNotFound
	}
	return *agent, nil
}

func (f *fakeRepo) ListActiveAgents(_ context.Context) ([]repository.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	agents := make([]repository.Agent, 0)
	for _, agent := range f.agents {
		if agent.IsActive && agent.Role == domain.RoleAgent {
			agents = append(agents, *agent)
		}
	}
	return agents, nil
}

func (f *fakeRepo) CountActiveLeads(_ context.Context, agentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, lead := range f.leads {
		if lead.AssignedUserID != nil && *lead.AssignedUserID == agentID && domain.IsActive(lead.Status) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ListEligible(_ context.Context, limit, maxRecyclingAttempts int) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	eligible := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.AssignedUserID == nil && domain.IsDistributable(lead.Status) &&
			lead.TimesRecycled < maxRecyclingAttempts {
			eligible = append(eligible, *lead)
		}
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
	f.mu.Lock()
	defer f.mu.Unlock()

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

func (f *fakeRepo) UpdateLeadStatus(_ context.Context, leadID uuid.UUID, status domain.LeadStatus, stampContact bool) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	if stampContact {
		now := time.Now()
		lead.LastContactDate = &now
		lead.ContactAttempts++
	}
	return *lead, nil
}

func (f *fakeRepo) InsertActivity(_ context.Context, params repository.CreateActivityParams) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	activity := repository.Activity{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		AgentID:      params.AgentID,
		ActivityType: params.ActivityType,
		Outcome:      params.Outcome,
		CreatedAt:    time.Now(),
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

func newService(repo *fakeRepo) *Service {
	return New(repo, queue.New(repo, 3, nil), nil, nil)
}

func TestMaintainQuotaTopsUpToTarget(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, true, domain.RoleAgent)
	for i := 0; i < 18; i++ {
		repo.addAssigned(agentID, domain.StatusContacted)
	}
	for i := 0; i < 5; i++ {
		repo.addEligible(50 + i)
	}

	svc := newService(repo)

	report, err := svc.MaintainQuota(context.Background(), agentID)
	if err != nil {
		t.Fatalf("MaintainQuota failed: %v", err)
	}
	if report.Assigned != 2 {
		t.Errorf("assigned %d leads, want exactly the deficit of 2", report.Assigned)
	}
	if report.ActiveCount != 20 {
		t.Errorf("active count = %d, want 20", report.ActiveCount)
	}
	if report.Shortfall != 0 {
		t.Errorf("shortfall = %d, want 0", report.Shortfall)
	}
}

func TestMaintainQuotaReportsShortfall(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(5, true, domain.RoleAgent)
	repo.addEligible(40)
	repo.addEligible(60)

	svc := newService(repo)

	report, err := svc.MaintainQuota(context.Background(), agentID)
	if err != nil {
		t.Fatalf("MaintainQuota failed: %v", err)
	}
	if report.Assigned != 2 {
		t.Errorf("assigned %d leads, want 2", report.Assigned)
	}
	if report.Shortfall != 3 {
		t.Errorf("shortfall = %d, want 3", report.Shortfall)
	}
}

func TestMaintainQuotaAtTargetIsZeroOp(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(2, true, domain.RoleAgent)
	repo.addAssigned(agentID, domain.StatusNew)
	repo.addAssigned(agentID, domain.StatusQualified)
	repo.addEligible(90)

	svc := newService(repo)

	report, err := svc.MaintainQuota(context.Background(), agentID)
	if err != nil {
		t.Fatalf("MaintainQuota failed: %v", err)
	}
	if report.Assigned != 0 {
		t.Errorf("assigned %d leads to an agent already at quota, want 0", report.Assigned)
	}
}

func TestMaintainQuotaUnknownAgent(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.MaintainQuota(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("got %v, want a not-found error", err)
	}
}

func TestMaintainQuotaInactiveAgentGetsNothing(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, false, domain.RoleAgent)
	repo.addEligible(90)

	svc := newService(repo)

	report, err := svc.MaintainQuota(context.Background(), agentID)
	if err != nil {
		t.Fatalf("MaintainQuota failed: %v", err)
	}
	if report.Assigned != 0 {
		t.Error("inactive agents must not receive leads")
	}
}

func TestRedistributeAllIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	first := repo.addAgent(3, true, domain.RoleAgent)
	second := repo.addAgent(3, true, domain.RoleAgent)
	for i := 0; i < 10; i++ {
		repo.addEligible(50 + i)
	}

	svc := newService(repo)

	reports, err := svc.RedistributeAll(context.Background())
	if err != nil {
		t.Fatalf("RedistributeAll failed: %v", err)
	}
	if reports[first].Assigned+reports[second].Assigned != 6 {
		t.Errorf("first pass assigned %d+%d leads, want 6 total",
			reports[first].Assigned, reports[second].Assigned)
	}

	again, err := svc.RedistributeAll(context.Background())
	if err != nil {
		t.Fatalf("second RedistributeAll failed: %v", err)
	}
	for agentID, report := range again {
		if report.Assigned != 0 {
			t.Errorf("agent %v received %d leads on a repeat run, want 0", agentID, report.Assigned)
		}
	}
}

func TestClaimAndAssignCapsAtHeadroom(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(5, true, domain.RoleAgent)
	for i := 0; i < 3; i++ {
		repo.addAssigned(agentID, domain.StatusContacted)
	}
	for i := 0; i < 10; i++ {
		repo.addEligible(40 + i)
	}

	svc := newService(repo)

	claimed, err := svc.ClaimAndAssign(context.Background(), agentID, 10)
	if err != nil {
		t.Fatalf("ClaimAndAssign failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Errorf("claimed %d leads, want the quota headroom of 2", len(claimed))
	}
}

func TestClaimAndAssignForbiddenForManagers(t *testing.T) {
	repo := newFakeRepo()
	managerID := repo.addAgent(20, true, domain.RoleManager)
	repo.addEligible(80)

	svc := newService(repo)

	_, err := svc.ClaimAndAssign(context.Background(), managerID, 1)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("got %v, want a forbidden error", err)
	}
}

func TestOnDispositionRejectsNonOwner(t *testing.T) {
	repo := newFakeRepo()
	owner := repo.addAgent(20, true, domain.RoleAgent)
	other := repo.addAgent(20, true, domain.RoleAgent)
	leadID := repo.addAssigned(owner, domain.StatusContacted)

	svc := newService(repo)

	_, err := svc.OnDisposition(context.Background(), leadID, domain.StatusQualified, other)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("got %v, want a forbidden error", err)
	}
	if repo.leads[leadID].Status != domain.StatusContacted {
		t.Error("a rejected disposition must not change the lead")
	}
}

func TestOnDispositionRejectsInvalidTransition(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, true, domain.RoleAgent)
	leadID := repo.addAssigned(agentID, domain.StatusNew)

	svc := newService(repo)

	// NEW cannot jump straight to QUALIFIED.
	_, err := svc.OnDisposition(context.Background(), leadID, domain.StatusQualified, agentID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Errorf("got %v, want an invalid-transition error", err)
	}
}

func TestOnDispositionRejectsMonitorOnlyStatuses(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, true, domain.RoleAgent)
	leadID := repo.addAssigned(agentID, domain.StatusContacted)

	svc := newService(repo)

	_, err := svc.OnDisposition(context.Background(), leadID, domain.StatusRecycled, agentID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Errorf("got %v, want an invalid-transition error for RECYCLED", err)
	}
}

func TestOnDispositionUnknownLead(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, true, domain.RoleAgent)

	svc := newService(repo)

	_, err := svc.OnDisposition(context.Background(), uuid.New(), domain.StatusContacted, agentID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("got %v, want a not-found error", err)
	}
}

func TestOnDispositionContactRecordsActivity(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(20, true, domain.RoleAgent)
	leadID := repo.addAssigned(agentID, domain.StatusNew)

	svc := newService(repo)

	updated, err := svc.OnDisposition(context.Background(), leadID, domain.StatusContacted, agentID)
	if err != nil {
		t.Fatalf("OnDisposition failed: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Errorf("status = %s, want CONTACTED", updated.Status)
	}
	if updated.LastContactDate == nil {
		t.Error("moving into CONTACTED must stamp last_contact_date")
	}
	if len(repo.activities) != 1 || repo.activities[0].ActivityType != "contact" {
		t.Error("moving into CONTACTED must record a contact activity")
	}
}

func TestOnDispositionTerminalBackfills(t *testing.T) {
	repo := newFakeRepo()
	agentID := repo.addAgent(1, true, domain.RoleAgent)
	leadID := repo.addAssigned(agentID, domain.StatusQualified)
	backfill := repo.addEligible(70)

	svc := newService(repo)

	updated, err := svc.OnDisposition(context.Background(), leadID, domain.StatusClosedWon, agentID)
	if err != nil {
		t.Fatalf("OnDisposition failed: %v", err)
	}
	if updated.Status != domain.StatusClosedWon {
		t.Errorf("status = %s, want CLOSED_WON", updated.Status)
	}

	replacement := repo.leads[backfill]
	if replacement.AssignedUserID == nil || *replacement.AssignedUserID != agentID {
		t.Error("closing a lead must backfill the agent's freed slot")
	}
}
