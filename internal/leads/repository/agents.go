package repository

import (
	"context"
	"errors"
	"time"

	"medleads_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrAgentNotFound = errors.New("agent not found")

type Agent struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	Role        domain.AgentRole
	IsActive    bool
	TargetQuota int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateAgentParams struct {
	Email       string
	FullName    string
	Role        domain.AgentRole
	TargetQuota int
}

const agentColumns = `id, email, full_name, role, is_active, target_quota, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var agent Agent
	err := row.Scan(
		&agent.ID, &agent.Email, &agent.FullName, &agent.Role,
		&agent.IsActive, &agent.TargetQuota, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrAgentNotFound
	}
	return agent, err
}

func (r *Repository) CreateAgent(ctx context.Context, params CreateAgentParams) (Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		INSERT INTO agents (email, full_name, role, target_quota)
		VALUES ($1, $2, $3, $4)
		RETURNING `+agentColumns,
		params.Email, params.FullName, params.Role, params.TargetQuota,
	))
}

func (r *Repository) GetAgentByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE id = $1
	`, id))
}

// ListActiveAgents returns active users with the agent role, the only
// population that participates in quota maintenance.
func (r *Repository) ListActiveAgents(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE is_active = true AND role = 'agent'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return agents, nil
}

// CountActiveLeads counts the leads an agent currently holds that are being
// worked: assigned to the agent and in a non-terminal, non-recycled status.
func (r *Repository) CountActiveLeads(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leads
		WHERE assigned_user_id = $1
		  AND status IN ('NEW', 'CONTACTED', 'QUALIFIED')
	`, agentID).Scan(&count)
	return count, err
}
