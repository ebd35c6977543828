// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"fmt"

	"medleads_backend/platform/apperr"
)

// LeadStatus is the closed set of lead lifecycle states. Statuses are
// persisted as strings but only these values are ever written.
type LeadStatus string

const (
	StatusNew        LeadStatus = "NEW"
	StatusContacted  LeadStatus = "CONTACTED"
	StatusQualified  LeadStatus = "QUALIFIED"
	StatusClosedWon  LeadStatus = "CLOSED_WON"
	StatusClosedLost LeadStatus = "CLOSED_LOST"
	StatusRecycled   LeadStatus = "RECYCLED"
	StatusRetired    LeadStatus = "RETIRED"
)

// AgentRole values. Only RoleAgent participates in quota maintenance.
type AgentRole string

const (
	RoleAgent   AgentRole = "agent"
	RoleManager AgentRole = "manager"
	RoleAdmin   AgentRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleAgent, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a LeadStatus, rejecting anything
// outside the closed enum so invalid statuses can never be persisted.
func ParseStatus(raw string) (LeadStatus, error) {
	s := LeadStatus(raw)
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusClosedWon,
		StatusClosedLost, StatusRecycled, StatusRetired:
		return s, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown lead status %q", raw))
}

// terminalStatuses are states from which no further transition is allowed.
var terminalStatuses = map[LeadStatus]bool{
	StatusClosedWon:  true,
	StatusClosedLost: true,
	StatusRetired:    true,
}

// IsTerminal returns true if the status is terminal.
func IsTerminal(status LeadStatus) bool {
	return terminalStatuses[status]
}

// IsActive returns true for statuses that count toward an agent's live-lead
// quota: assigned and being worked, i.e. not terminal and not back in the
// distribution pool.
func IsActive(status LeadStatus) bool {
	switch status {
	case StatusNew, StatusContacted, StatusQualified:
		return true
	}
	return false
}

// IsDistributable returns true for statuses eligible for the assignment
// queue. Recycling-budget exhaustion is checked separately.
func IsDistributable(status LeadStatus) bool {
	return status == StatusNew || status == StatusRecycled
}

// allowedTransitions is the lifecycle transition table. RECYCLED → NEW is
// deliberately absent: it only happens implicitly through a claim, never as
// a requested status change.
var allowedTransitions = map[LeadStatus][]LeadStatus{
	StatusNew:       {StatusContacted, StatusRecycled},
	StatusRecycled:  {StatusContacted, StatusRetired},
	StatusContacted: {StatusQualified, StatusClosedWon, StatusClosedLost, StatusRecycled},
	StatusQualified: {StatusClosedWon, StatusClosedLost, StatusRecycled},
}

// CanTransition reports whether from → to is a listed lifecycle transition.
func CanTransition(from, to LeadStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransition error when from → to is
// not in the lifecycle table. The caller's request must have no effect in
// that case.
func ValidateTransition(from, to LeadStatus) error {
	if !CanTransition(from, to) {
		return apperr.InvalidTransition(fmt.Sprintf("cannot transition lead from %s to %s", from, to))
	}
	return nil
}

// RequiresContactActivity reports whether the transition needs an
// associated contact-type activity record. Moving into CONTACTED is the
// only such transition; it also stamps last_contact_date.
func RequiresContactActivity(from, to LeadStatus) bool {
	return to == StatusContacted && (from == StatusNew || from == StatusRecycled)
}

// MonitorOnly reports whether the target status may only be set by the
// recycling monitor, never by a direct agent action.
func MonitorOnly(to LeadStatus) bool {
	return to == StatusRecycled || to == StatusRetired
}

// DispositionStatuses are the statuses an agent may request through the
// disposition endpoint.
var DispositionStatuses = []LeadStatus{
	StatusContacted,
	StatusQualified,
	StatusClosedWon,
	StatusClosedLost,
}
