package repository

import (
	"context"
	"errors"
	"time"

	"medleads_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the persisted lead record. Score and tier are written once at
// creation and never updated; ownership fields only change through the
// conditional claim, disposition or recycling paths.
type Lead struct {
	ID              uuid.UUID
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
	Score           int
	PriorityTier    domain.Tier
	Status          domain.LeadStatus
	AssignedUserID  *uuid.UUID
	AssignedAt      *time.Time
	LastContactDate *time.Time
	NextFollowUp    *time.Time
	ContactAttempts int
	TimesRecycled   int
	PreviousAgents  []uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
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
	Score           int
	PriorityTier    domain.Tier
	NextFollowUp    *time.Time
}

const leadColumns = `
	id, practice_name, specialties, provider_count, phone, email, tax_id,
	sole_proprietor, practice_zip, practice_state, mailing_address, practice_address,
	score, priority_tier, status, assigned_user_id, assigned_at, last_contact_date,
	next_follow_up, contact_attempts, times_recycled, previous_agents, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.PracticeName, &lead.Specialties, &lead.ProviderCount,
		&lead.Phone, &lead.Email, &lead.TaxID, &lead.SoleProprietor,
		&lead.PracticeZip, &lead.PracticeState, &lead.MailingAddress, &lead.PracticeAddress,
		&lead.Score, &lead.PriorityTier, &lead.Status,
		&lead.AssignedUserID, &lead.AssignedAt, &lead.LastContactDate, &lead.NextFollowUp,
		&lead.ContactAttempts, &lead.TimesRecycled, &lead.PreviousAgents,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			practice_name, specialties, provider_count, phone, email, tax_id,
			sole_proprietor, practice_zip, practice_state, mailing_address, practice_address,
			score, priority_tier, status, next_follow_up
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'NEW', $14)
		RETURNING `+leadColumns,
		params.PracticeName, params.Specialties, params.ProviderCount, params.Phone,
		params.Email, params.TaxID, params.SoleProprietor, params.PracticeZip,
		params.PracticeState, params.MailingAddress, params.PracticeAddress,
		params.Score, params.PriorityTier, params.NextFollowUp,
	))
}

func (r *Repository) GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
}

// ListEligible returns unowned leads eligible for distribution, best first.
// Ties on score go to the oldest lead so equally scored new arrivals cannot
// starve older ones.
func (r *Repository) ListEligible(ctx context.Context, limit, maxRecyclingAttempts int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status IN ('NEW', 'RECYCLED')
		  AND assigned_user_id IS NULL
		  AND times_recycled < $1
		ORDER BY score DESC, created_at ASC
		LIMIT $2
	`, maxRecyclingAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// ClaimLead is the single serialization point for ownership: a conditional
// write that succeeds only while the lead is still unowned and eligible.
// A recycled lead comes back as NEW under the new owner in the same
// statement, so an owned-but-RECYCLED lead can never be observed.
func (r *Repository) ClaimLead(ctx context.Context, leadID, agentID uuid.UUID, maxRecyclingAttempts int) (Lead, bool, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET assigned_user_id = $2,
		    assigned_at = now(),
		    status = 'NEW',
		    updated_at = now()
		WHERE id = $1
		  AND assigned_user_id IS NULL
		  AND status IN ('NEW', 'RECYCLED')
		  AND times_recycled < $3
		RETURNING `+leadColumns,
		leadID, agentID, maxRecyclingAttempts,
	))
	if errors.Is(err, ErrNotFound) {
		// Lost the race or the lead became ineligible; not an error.
		return Lead{}, false, nil
	}
	if err != nil {
		return Lead{}, false, err
	}
	return lead, true, nil
}

// UpdateLeadStatus applies a disposition status. When stampContact is true
// the contact timestamp and attempt counter advance as well.
func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status domain.LeadStatus, stampContact bool) (Lead, error) {
	if stampContact {
		return scanLead(r.pool.QueryRow(ctx, `
			UPDATE leads
			SET status = $2,
			    last_contact_date = now(),
			    contact_attempts = contact_attempts + 1,
			    updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			leadID, status,
		))
	}

	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		leadID, status,
	))
}

// RecycleLead returns an assigned lead to the pool: ownership cleared, the
// old owner appended to the audit trail, recycling counter bumped.
func (r *Repository) RecycleLead(ctx context.Context, leadID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET status = 'RECYCLED',
		    previous_agents = array_append(previous_agents, assigned_user_id),
		    assigned_user_id = NULL,
		    assigned_at = NULL,
		    times_recycled = times_recycled + 1,
		    updated_at = now()
		WHERE id = $1 AND assigned_user_id IS NOT NULL
		RETURNING `+leadColumns,
		leadID,
	))
}

// RetireLead permanently excludes a lead from distribution.
func (r *Repository) RetireLead(ctx context.Context, leadID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET status = 'RETIRED',
		    previous_agents = CASE WHEN assigned_user_id IS NULL THEN previous_agents
		                           ELSE array_append(previous_agents, assigned_user_id) END,
		    assigned_user_id = NULL,
		    assigned_at = NULL,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		leadID,
	))
}

// ListInactiveAssigned returns assigned, non-terminal leads whose last sign
// of life (assignment or contact) predates the cutoff and which have no
// activity row newer than the cutoff.
func (r *Repository) ListInactiveAssigned(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.assigned_user_id IS NOT NULL
		  AND l.status IN ('NEW', 'CONTACTED', 'QUALIFIED')
		  AND GREATEST(l.assigned_at, COALESCE(l.last_contact_date, l.assigned_at)) < $1
		  AND NOT EXISTS (
			SELECT 1 FROM lead_activities a
			WHERE a.lead_id = l.id AND a.created_at > $1
		  )
		ORDER BY l.assigned_at ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}
