// Package distribution keeps every active agent supplied with a target
// number of live leads and reacts to disposition events by backfilling.
package distribution

import (
	"context"
	"errors"
	"sync"

	"medleads_backend/internal/events"
	"medleads_backend/internal/leads/domain"
	"medleads_backend/internal/leads/queue"
	"medleads_backend/internal/leads/repository"
	"medleads_backend/platform/apperr"
	"medleads_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// redistributeConcurrency bounds the per-agent fan-out of RedistributeAll.
const redistributeConcurrency = 4

// QuotaReport is the result of a single quota maintenance pass. Shortfall
// is informational low-inventory signal, never an error.
type QuotaReport struct {
	AgentID     uuid.UUID `json:"agentId"`
	ActiveCount int       `json:"activeCount"`
	TargetQuota int       `json:"targetQuota"`
	Assigned    int       `json:"assigned"`
	Shortfall   int       `json:"shortfall"`
}

type Service struct {
	repo  repository.LeadsRepository
	queue *queue.Service
	bus   events.Bus
	log   *logger.Logger
}

func New(repo repository.LeadsRepository, q *queue.Service, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, queue: q, bus: bus, log: log}
}

// MaintainQuota tops an agent up to its target quota from the assignment
// queue. An agent already at or above quota is a zero-op success; short
// supply is reported as a shortfall, not an error.
func (s *Service) MaintainQuota(ctx context.Context, agentID uuid.UUID) (QuotaReport, error) {
	agent, err := s.repo.GetAgentByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return QuotaReport{}, apperr.NotFound("agent not found")
		}
		return QuotaReport{}, err
	}

	report := QuotaReport{AgentID: agent.ID, TargetQuota: agent.TargetQuota}

	// Managers and admins review pipelines; only agents hold quota.
	if !agent.IsActive || agent.Role != domain.RoleAgent {
		return report, nil
	}

	active, err := s.repo.CountActiveLeads(ctx, agent.ID)
	if err != nil {
		return report, err
	}
	report.ActiveCount = active

	deficit := agent.TargetQuota - active
	if deficit <= 0 {
		return report, nil
	}

	claimed, err := s.queue.Pop(ctx, agent.ID, deficit)
	if err != nil {
		return report, err
	}

	for _, lead := range claimed {
		s.publishAssigned(ctx, lead, agent.ID)
	}

	report.Assigned = len(claimed)
	report.ActiveCount = active + len(claimed)
	report.Shortfall = deficit - len(claimed)

	return report, nil
}

// ClaimAndAssign claims up to n leads for an agent, capped at the agent's
// remaining quota headroom. It is the interactive counterpart of
// MaintainQuota: the agent pulls instead of the system pushing.
func (s *Service) ClaimAndAssign(ctx context.Context, agentID uuid.UUID, n int) ([]repository.Lead, error) {
	agent, err := s.repo.GetAgentByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return nil, apperr.NotFound("agent not found")
		}
		return nil, err
	}

	if !agent.IsActive || agent.Role != domain.RoleAgent {
		return nil, apperr.Forbidden("only active agents can claim leads")
	}

	active, err := s.repo.CountActiveLeads(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	headroom := agent.TargetQuota - active
	if headroom < n {
		n = headroom
	}
	if n <= 0 {
		return []repository.Lead{}, nil
	}

	claimed, err := s.queue.Pop(ctx, agent.ID, n)
	if err != nil {
		return nil, err
	}

	for _, lead := range claimed {
		s.publishAssigned(ctx, lead, agent.ID)
	}

	return claimed, nil
}

// RedistributeAll runs quota maintenance for every active agent and
// aggregates the per-agent results. Once all quotas are met, repeated
// invocations assign nothing, so overlapping runs are safe.
func (s *Service) RedistributeAll(ctx context.Context) (map[uuid.UUID]QuotaReport, error) {
	agents, err := s.repo.ListActiveAgents(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	reports := make(map[uuid.UUID]QuotaReport, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(redistributeConcurrency)

	for _, agent := range agents {
		agentID := agent.ID
		g.Go(func() error {
			report, err := s.MaintainQuota(gctx, agentID)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[agentID] = report
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}

	return reports, nil
}

// OnDisposition applies an agent-requested status change to a lead. The
// caller must be the current owner. A transition into a terminal won/lost
// state immediately backfills the agent's freed slot.
func (s *Service) OnDisposition(ctx context.Context, leadID uuid.UUID, newStatus domain.LeadStatus, agentID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetLeadByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}

	if lead.AssignedUserID == nil || *lead.AssignedUserID != agentID {
		return repository.Lead{}, apperr.Forbidden("lead is not assigned to this agent")
	}

	if domain.MonitorOnly(newStatus) {
		return repository.Lead{}, apperr.InvalidTransition("status is reserved for the recycling monitor")
	}

	if err := domain.ValidateTransition(lead.Status, newStatus); err != nil {
		return repository.Lead{}, err
	}

	stampContact := domain.RequiresContactActivity(lead.Status, newStatus)
	if stampContact {
		outcome := string(newStatus)
		if _, err := s.repo.InsertActivity(ctx, repository.CreateActivityParams{
			LeadID:       lead.ID,
			AgentID:      agentID,
			ActivityType: "contact",
			Outcome:      &outcome,
		}); err != nil {
			return repository.Lead{}, err
		}
	}

	updated, err := s.repo.UpdateLeadStatus(ctx, lead.ID, newStatus, stampContact)
	if err != nil {
		return repository.Lead{}, err
	}

	if domain.IsTerminal(updated.Status) {
		if s.bus != nil {
			s.bus.Publish(ctx, events.LeadClosed{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    updated.ID,
				AgentID:   agentID,
				Status:    string(updated.Status),
			})
		}

		// Backfill the freed slot. Failure to top up must not fail the
		// disposition itself.
		if _, err := s.MaintainQuota(ctx, agentID); err != nil && s.log != nil {
			s.log.Error("post-disposition backfill failed", "agentId", agentID, "error", err)
		}
	}

	return updated, nil
}

func (s *Service) publishAssigned(ctx context.Context, lead repository.Lead, agentID uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		AgentID:      agentID,
		Reassignment: len(lead.PreviousAgents) > 0,
	})
}
