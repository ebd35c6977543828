// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	platformevents "medleads_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = platformevents.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when ingestion creates a new scored lead.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Score  int       `json:"score"`
	Tier   string    `json:"tier"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when the distribution service claims a lead
// for an agent.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	Reassignment bool      `json:"reassignment"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadClosed is published when a disposition moves a lead into a terminal
// won/lost state.
type LeadClosed struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	AgentID uuid.UUID `json:"agentId"`
	Status  string    `json:"status"`
}

func (e LeadClosed) EventName() string { return "leads.lead.closed" }

// LeadRecycled is published when the recycling monitor returns an inactive
// lead to the distribution pool.
type LeadRecycled struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	PreviousAgent *uuid.UUID `json:"previousAgent,omitempty"`
	TimesRecycled int        `json:"timesRecycled"`
}

func (e LeadRecycled) EventName() string { return "leads.lead.recycled" }

// LeadRetired is published when a lead exhausts its recycling budget and
// is permanently excluded from distribution.
type LeadRetired struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadRetired) EventName() string { return "leads.lead.retired" }
