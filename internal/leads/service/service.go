// Package service is the application facade for the leads bounded context.
// It orchestrates scoring, the assignment queue, distribution and recycling,
// and is the only layer the HTTP handlers talk to.
package service

import (
	"context"
	"errors"
	"time"

	"medleads_backend/internal/events"
	"medleads_backend/internal/leads/distribution"
	"medleads_backend/internal/leads/domain"
	"medleads_backend/internal/leads/queue"
	"medleads_backend/internal/leads/recycling"
	"medleads_backend/internal/leads/repository"
	"medleads_backend/internal/leads/scoring"
	"medleads_backend/platform/apperr"
	"medleads_backend/platform/logger"
	"medleads_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	defaultClaimCount   = 1
	defaultPreviewLimit = 50
	maxPreviewLimit     = 200
)

type Service struct {
	repo               repository.LeadsRepository
	scorer             *scoring.Service
	queue              *queue.Service
	distributor        *distribution.Service
	monitor            *recycling.Monitor
	bus                events.Bus
	log                *logger.Logger
	defaultTargetQuota int
}

func New(repo repository.LeadsRepository, scorer *scoring.Service, q *queue.Service,
	distributor *distribution.Service, monitor *recycling.Monitor, bus events.Bus,
	log *logger.Logger, defaultTargetQuota int) *Service {
	return &Service{
		repo:               repo,
		scorer:             scorer,
		queue:              q,
		distributor:        distributor,
		monitor:            monitor,
		bus:                bus,
		log:                log,
		defaultTargetQuota: defaultTargetQuota,
	}
}

// CreateLeadResult pairs the stored lead with its scoring breakdown.
type CreateLeadResult struct {
	Lead        repository.Lead
	Rural       bool
	Factors     map[string]float64
	RuleVersion string
}

// CreateLeadInput holds the validated ingestion attributes.
type CreateLeadInput struct {
	PracticeName    string
	Specialties     []string
	ProviderCount   int
	Phone           string
	Email           *string
	TaxID           *string
	SoleProprietor  bool
	PracticeZip     string
	PracticeState   string
	MailingAddress  *string
	PracticeAddress *string
	NextFollowUp    *time.Time
}

// CreateLead scores the practice attributes and persists the lead in NEW
// status. Scoring never blocks ingestion: a degraded rural lookup simply
// caps the score.
func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (CreateLeadResult, error) {
	normalizedPhone := phone.NormalizeE164(input.Phone)

	result := s.scorer.Score(ctx, scoring.Input{
		Specialties:     input.Specialties,
		ProviderCount:   input.ProviderCount,
		Phone:           normalizedPhone,
		TaxID:           deref(input.TaxID),
		SoleProprietor:  input.SoleProprietor,
		PracticeZip:     input.PracticeZip,
		PracticeState:   input.PracticeState,
		MailingAddress:  deref(input.MailingAddress),
		PracticeAddress: deref(input.PracticeAddress),
	})

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		PracticeName:    input.PracticeName,
		Specialties:     input.Specialties,
		ProviderCount:   input.ProviderCount,
		Phone:           normalizedPhone,
		Email:           input.Email,
		TaxID:           input.TaxID,
		SoleProprietor:  input.SoleProprietor,
		PracticeZip:     input.PracticeZip,
		PracticeState:   input.PracticeState,
		MailingAddress:  input.MailingAddress,
		PracticeAddress: input.PracticeAddress,
		Score:           result.Score,
		PriorityTier:    result.Tier,
		NextFollowUp:    input.NextFollowUp,
	})
	if err != nil {
		return CreateLeadResult{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Score:     lead.Score,
			Tier:      string(lead.PriorityTier),
		})
	}

	return CreateLeadResult{
		Lead:        lead,
		Rural:       result.Rural,
		Factors:     result.Factors,
		RuleVersion: result.Version,
	}, nil
}

// GetLead fetches a single lead by id.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}
	return lead, nil
}

// GetAvailableLeads previews the assignment queue without claiming,
// best-scored first.
func (s *Service) GetAvailableLeads(ctx context.Context, limit int) ([]repository.Lead, error) {
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	if limit > maxPreviewLimit {
		limit = maxPreviewLimit
	}
	return s.queue.Preview(ctx, limit)
}

// ClaimLeads claims up to count leads for an agent, bounded by the agent's
// remaining quota headroom. Short supply returns fewer leads, never an
// error.
func (s *Service) ClaimLeads(ctx context.Context, agentID uuid.UUID, count int) ([]repository.Lead, error) {
	if count <= 0 {
		count = defaultClaimCount
	}
	return s.distributor.ClaimAndAssign(ctx, agentID, count)
}

// RecordDisposition applies an agent's status change to an owned lead.
func (s *Service) RecordDisposition(ctx context.Context, leadID uuid.UUID, rawStatus string, agentID uuid.UUID) (repository.Lead, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return repository.Lead{}, err
	}
	return s.distributor.OnDisposition(ctx, leadID, status, agentID)
}

// RunRecyclingSweep executes one inactivity sweep on demand. The scheduled
// sweeps run through the same path.
func (s *Service) RunRecyclingSweep(ctx context.Context) (recycling.SweepResult, error) {
	return s.monitor.SweepOnce(ctx)
}

// RunRedistribution tops every active agent up to quota. Idempotent: once
// quotas are met a repeat run assigns nothing.
func (s *Service) RunRedistribution(ctx context.Context) (map[uuid.UUID]distribution.QuotaReport, error) {
	return s.distributor.RedistributeAll(ctx)
}

// CreateAgent registers a sales agent. Role defaults to agent, quota to the
// configured default.
func (s *Service) CreateAgent(ctx context.Context, email, fullName, role string, targetQuota int) (repository.Agent, error) {
	agentRole := domain.AgentRole(role)
	if role == "" {
		agentRole = domain.RoleAgent
	}
	if !agentRole.Valid() {
		return repository.Agent{}, apperr.Validation("unknown agent role")
	}

	if targetQuota <= 0 {
		targetQuota = s.defaultTargetQuota
	}

	return s.repo.CreateAgent(ctx, repository.CreateAgentParams{
		Email:       email,
		FullName:    fullName,
		Role:        agentRole,
		TargetQuota: targetQuota,
	})
}

// QuotaStatus reports an agent's current load against its target quota.
func (s *Service) QuotaStatus(ctx context.Context, agentID uuid.UUID) (repository.Agent, int, error) {
	agent, err := s.repo.GetAgentByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return repository.Agent{}, 0, apperr.NotFound("agent not found")
		}
		return repository.Agent{}, 0, err
	}

	active, err := s.repo.CountActiveLeads(ctx, agentID)
	if err != nil {
		return repository.Agent{}, 0, err
	}

	return agent, active, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
