package repository

import (
	"context"
	"time"

	"medleads_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadsRepository is the storage contract consumed by the queue,
// distribution and recycling services. The production implementation is
// postgres-backed; tests substitute in-memory fakes.
type LeadsRepository interface {
	// Leads
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error)
	ListEligible(ctx context.Context, limit, maxRecyclingAttempts int) ([]Lead, error)
	// ClaimLead atomically assigns an unowned eligible lead to an agent.
	// The returned bool is false when the conditional write matched no row,
	// i.e. another caller won the race or the lead became ineligible.
	ClaimLead(ctx context.Context, leadID, agentID uuid.UUID, maxRecyclingAttempts int) (Lead, bool, error)
	UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status domain.LeadStatus, stampContact bool) (Lead, error)
	RecycleLead(ctx context.Context, leadID uuid.UUID) (Lead, error)
	RetireLead(ctx context.Context, leadID uuid.UUID) (Lead, error)
	ListInactiveAssigned(ctx context.Context, cutoff time.Time) ([]Lead, error)

	// Agents
	CreateAgent(ctx context.Context, params CreateAgentParams) (Agent, error)
	GetAgentByID(ctx context.Context, id uuid.UUID) (Agent, error)
	ListActiveAgents(ctx context.Context) ([]Agent, error)
	CountActiveLeads(ctx context.Context, agentID uuid.UUID) (int, error)

	// Activities
	InsertActivity(ctx context.Context, params CreateActivityParams) (Activity, error)
}
