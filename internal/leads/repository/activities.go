package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only log entry tied to a lead. Activities are never
// mutated after creation; the recycling monitor reads them as evidence of
// liveness.
type Activity struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	AgentID      uuid.UUID
	ActivityType string
	Outcome      *string
	CreatedAt    time.Time
}

type CreateActivityParams struct {
	LeadID       uuid.UUID
	AgentID      uuid.UUID
	ActivityType string
	Outcome      *string
}

func (r *Repository) InsertActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	var activity Activity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (lead_id, agent_id, activity_type, outcome)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, agent_id, activity_type, outcome, created_at
	`, params.LeadID, params.AgentID, params.ActivityType, params.Outcome).Scan(
		&activity.ID, &activity.LeadID, &activity.AgentID,
		&activity.ActivityType, &activity.Outcome, &activity.CreatedAt,
	)
	if err != nil {
		return Activity{}, err
	}

	return activity, nil
}
