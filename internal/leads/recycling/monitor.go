// Package recycling sweeps inactive assigned leads back into the
// distribution pool, retiring those whose recycling budget is exhausted.
package recycling

import (
	"context"
	"time"

	"medleads_backend/internal/events"
	"medleads_backend/internal/leads/distribution"
	"medleads_backend/internal/leads/repository"
	"medleads_backend/platform/logger"
)

const (
	defaultSweepInterval       = time.Hour
	defaultInactivityThreshold = 24 * time.Hour
	defaultMaxRecycling        = 3
)

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Examined int `json:"examined"`
	Recycled int `json:"recycled"`
	Retired  int `json:"retired"`
	Failed   int `json:"failed"`
}

// Monitor periodically demotes inactive assigned leads. Each sweep is
// idempotent: a lead swept twice lands in the same state, so overlapping
// runs are harmless.
type Monitor struct {
	repo                 repository.LeadsRepository
	distributor          *distribution.Service
	bus                  events.Bus
	log                  *logger.Logger
	interval             time.Duration
	inactivityThreshold  time.Duration
	maxRecyclingAttempts int
}

func NewMonitor(repo repository.LeadsRepository, distributor *distribution.Service, bus events.Bus, log *logger.Logger,
	interval, inactivityThreshold time.Duration, maxRecyclingAttempts int) *Monitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if inactivityThreshold <= 0 {
		inactivityThreshold = defaultInactivityThreshold
	}
	if maxRecyclingAttempts <= 0 {
		maxRecyclingAttempts = defaultMaxRecycling
	}

	return &Monitor{
		repo:                 repo,
		distributor:          distributor,
		bus:                  bus,
		log:                  log,
		interval:             interval,
		inactivityThreshold:  inactivityThreshold,
		maxRecyclingAttempts: maxRecyclingAttempts,
	}
}

// Run executes a sweep immediately and then on every interval tick until
// the context is cancelled. A failed sweep is retried wholesale on the
// next tick; there is no partial-sweep resumption.
func (m *Monitor) Run(ctx context.Context) {
	if m == nil || m.repo == nil {
		return
	}

	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	result, err := m.SweepOnce(ctx)
	if err != nil {
		if m.log != nil {
			m.log.Error("recycling sweep failed", "error", err)
		}
		return
	}

	if m.log != nil && (result.Recycled > 0 || result.Retired > 0 || result.Failed > 0) {
		m.log.Info("recycling sweep complete",
			"examined", result.Examined,
			"recycled", result.Recycled,
			"retired", result.Retired,
			"failed", result.Failed,
		)
	}
}

// SweepOnce demotes every assigned lead whose last sign of life predates
// the inactivity threshold, then redistributes once so agents who lost
// leads are topped back up. Per-lead failures are logged and skipped; one
// bad record never aborts the batch.
func (m *Monitor) SweepOnce(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().UTC().Add(-m.inactivityThreshold)

	stale, err := m.repo.ListInactiveAssigned(ctx, cutoff)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Examined: len(stale)}

	for _, lead := range stale {
		if err := m.demote(ctx, lead, &result); err != nil {
			result.Failed++
			if m.log != nil {
				m.log.SweepError(lead.ID.String(), err)
			}
		}
	}

	// Recycling and retirement both free agent slots, so either one
	// warrants a backfill pass.
	if (result.Recycled > 0 || result.Retired > 0) && m.distributor != nil {
		if _, err := m.distributor.RedistributeAll(ctx); err != nil && m.log != nil {
			m.log.Error("post-sweep redistribution failed", "error", err)
		}
	}

	return result, nil
}

// demote recycles a lead, or retires it when this demotion would exceed
// the recycling budget.
func (m *Monitor) demote(ctx context.Context, lead repository.Lead, result *SweepResult) error {
	// A lead entering its final permitted recycle has no redistribution
	// value left: it goes straight to RETIRED.
	if lead.TimesRecycled >= m.maxRecyclingAttempts-1 {
		retired, err := m.repo.RetireLead(ctx, lead.ID)
		if err != nil {
			return err
		}
		result.Retired++
		if m.bus != nil {
			m.bus.Publish(ctx, events.LeadRetired{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    retired.ID,
			})
		}
		return nil
	}

	previousAgent := lead.AssignedUserID
	recycled, err := m.repo.RecycleLead(ctx, lead.ID)
	if err != nil {
		return err
	}

	result.Recycled++
	if m.bus != nil {
		m.bus.Publish(ctx, events.LeadRecycled{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        recycled.ID,
			PreviousAgent: previousAgent,
			TimesRecycled: recycled.TimesRecycled,
		})
	}
	return nil
}
