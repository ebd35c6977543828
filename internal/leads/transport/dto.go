// Package transport defines the request and response DTOs for the leads
// HTTP surface. DTOs are decoupled from storage structs so the wire format
// can evolve independently.
package transport

import (
	"time"

	"medleads_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	PracticeName    string     `json:"practiceName" validate:"required,min=1,max=200"`
	Specialties     []string   `json:"specialties" validate:"omitempty,max=20,dive,min=1,max=100"`
	ProviderCount   int        `json:"providerCount" validate:"omitempty,min=0,max=10000"`
	Phone           string     `json:"phone" validate:"required,min=5,max=20"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	TaxID           *string    `json:"taxId,omitempty" validate:"omitempty,max=20"`
	SoleProprietor  bool       `json:"soleProprietor"`
	PracticeZip     string     `json:"practiceZip" validate:"required,min=5,max=10"`
	PracticeState   string     `json:"practiceState" validate:"required,len=2"`
	MailingAddress  *string    `json:"mailingAddress,omitempty" validate:"omitempty,max=300"`
	PracticeAddress *string    `json:"practiceAddress,omitempty" validate:"omitempty,max=300"`
	NextFollowUp    *time.Time `json:"nextFollowUp,omitempty"`
}

type ClaimLeadsRequest struct {
	AgentID uuid.UUID `json:"agentId" validate:"required"`
	Count   int       `json:"count" validate:"omitempty,min=1,max=100"`
}

type DispositionRequest struct {
	AgentID uuid.UUID `json:"agentId" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=CONTACTED QUALIFIED CLOSED_WON CLOSED_LOST"`
}

type CreateAgentRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"fullName" validate:"required,min=1,max=200"`
	Role        string `json:"role" validate:"omitempty,oneof=agent manager admin"`
	TargetQuota int    `json:"targetQuota" validate:"omitempty,min=1,max=500"`
}

// Response DTOs

type LeadResponse struct {
	ID              uuid.UUID   `json:"id"`
	PracticeName    string      `json:"practiceName"`
	Specialties     []string    `json:"specialties"`
	ProviderCount   int         `json:"providerCount"`
	Phone           string      `json:"phone"`
	Email           *string     `json:"email,omitempty"`
	TaxID           *string     `json:"taxId,omitempty"`
	SoleProprietor  bool        `json:"soleProprietor"`
	PracticeZip     string      `json:"practiceZip"`
	PracticeState   string      `json:"practiceState"`
	MailingAddress  *string     `json:"mailingAddress,omitempty"`
	PracticeAddress *string     `json:"practiceAddress,omitempty"`
	Score           int         `json:"score"`
	PriorityTier    string      `json:"priorityTier"`
	Status          string      `json:"status"`
	AssignedUserID  *uuid.UUID  `json:"assignedUserId,omitempty"`
	AssignedAt      *time.Time  `json:"assignedAt,omitempty"`
	LastContactDate *time.Time  `json:"lastContactDate,omitempty"`
	NextFollowUp    *time.Time  `json:"nextFollowUp,omitempty"`
	ContactAttempts int         `json:"contactAttempts"`
	TimesRecycled   int         `json:"timesRecycled"`
	PreviousAgents  []uuid.UUID `json:"previousAgents"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// CreateLeadResponse carries the scoring breakdown alongside the stored
// lead so callers can see why a record landed in its tier.
type CreateLeadResponse struct {
	Lead         LeadResponse       `json:"lead"`
	Rural        bool               `json:"rural"`
	ScoreFactors map[string]float64 `json:"scoreFactors"`
	RuleVersion  string             `json:"ruleVersion"`
}

type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
	Count int            `json:"count"`
}

type AgentResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	TargetQuota int       `json:"targetQuota"`
	CreatedAt   time.Time `json:"createdAt"`
}

type QuotaStatusResponse struct {
	AgentID     uuid.UUID `json:"agentId"`
	ActiveCount int       `json:"activeCount"`
	TargetQuota int       `json:"targetQuota"`
	Headroom    int       `json:"headroom"`
}

type SweepResponse struct {
	Examined int `json:"examined"`
	Recycled int `json:"recycled"`
	Retired  int `json:"retired"`
	Failed   int `json:"failed"`
}

type RedistributeAgentReport struct {
	AgentID     uuid.UUID `json:"agentId"`
	ActiveCount int       `json:"activeCount"`
	TargetQuota int       `json:"targetQuota"`
	Assigned    int       `json:"assigned"`
	Shortfall   int       `json:"shortfall"`
}

type RedistributeResponse struct {
	Agents        []RedistributeAgentReport `json:"agents"`
	TotalAssigned int                       `json:"totalAssigned"`
}

// Mapping helpers

func ToLeadResponse(lead repository.Lead) LeadResponse {
	specialties := lead.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	previous := lead.PreviousAgents
	if previous == nil {
		previous = []uuid.UUID{}
	}

	return LeadResponse{
		ID:              lead.ID,
		PracticeName:    lead.PracticeName,
		Specialties:     specialties,
		ProviderCount:   lead.ProviderCount,
		Phone:           lead.Phone,
		Email:           lead.Email,
		TaxID:           lead.TaxID,
		SoleProprietor:  lead.SoleProprietor,
		PracticeZip:     lead.PracticeZip,
		PracticeState:   lead.PracticeState,
		MailingAddress:  lead.MailingAddress,
		PracticeAddress: lead.PracticeAddress,
		Score:           lead.Score,
		PriorityTier:    string(lead.PriorityTier),
		Status:          string(lead.Status),
		AssignedUserID:  lead.AssignedUserID,
		AssignedAt:      lead.AssignedAt,
		LastContactDate: lead.LastContactDate,
		NextFollowUp:    lead.NextFollowUp,
		ContactAttempts: lead.ContactAttempts,
		TimesRecycled:   lead.TimesRecycled,
		PreviousAgents:  previous,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func ToLeadListResponse(leads []repository.Lead) LeadListResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return LeadListResponse{Leads: out, Count: len(out)}
}

func ToAgentResponse(agent repository.Agent) AgentResponse {
	return AgentResponse{
		ID:          agent.ID,
		Email:       agent.Email,
		FullName:    agent.FullName,
		Role:        string(agent.Role),
		IsActive:    agent.IsActive,
		TargetQuota: agent.TargetQuota,
		CreatedAt:   agent.CreatedAt,
	}
}
