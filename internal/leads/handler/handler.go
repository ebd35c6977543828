// Package handler exposes the leads bounded context over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"medleads_backend/internal/leads/service"
	"medleads_backend/internal/leads/transport"
	"medleads_backend/platform/httpkit"
	"medleads_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/available", h.ListAvailable)
	rg.POST("/claim", h.Claim)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/disposition", h.Disposition)
	rg.POST("/recycling/sweep", h.Sweep)
	rg.POST("/redistribute", h.Redistribute)
}

func (h *Handler) RegisterAgentRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateAgent)
	rg.GET("/:id/quota", h.QuotaStatus)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateLead(c.Request.Context(), service.CreateLeadInput{
		PracticeName:    req.PracticeName,
		Specialties:     req.Specialties,
		ProviderCount:   req.ProviderCount,
		Phone:           req.Phone,
		Email:           req.Email,
		TaxID:           req.TaxID,
		SoleProprietor:  req.SoleProprietor,
		PracticeZip:     req.PracticeZip,
		PracticeState:   req.PracticeState,
		MailingAddress:  req.MailingAddress,
		PracticeAddress: req.PracticeAddress,
		NextFollowUp:    req.NextFollowUp,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateLeadResponse{
		Lead:         transport.ToLeadResponse(result.Lead),
		Rural:        result.Rural,
		ScoreFactors: result.Factors,
		RuleVersion:  result.RuleVersion,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ListAvailable(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	leads, err := h.svc.GetAvailableLeads(c.Request.Context(), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToLeadListResponse(leads))
}

func (h *Handler) Claim(c *gin.Context) {
	var req transport.ClaimLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	claimed, err := h.svc.ClaimLeads(c.Request.Context(), req.AgentID, req.Count)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToLeadListResponse(claimed))
}

func (h *Handler) Disposition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.RecordDisposition(c.Request.Context(), id, req.Status, req.AgentID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Sweep(c *gin.Context) {
	result, err := h.svc.RunRecyclingSweep(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.SweepResponse{
		Examined: result.Examined,
		Recycled: result.Recycled,
		Retired:  result.Retired,
		Failed:   result.Failed,
	})
}

func (h *Handler) Redistribute(c *gin.Context) {
	reports, err := h.svc.RunRedistribution(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp := transport.RedistributeResponse{
		Agents: make([]transport.RedistributeAgentReport, 0, len(reports)),
	}
	for _, report := range reports {
		resp.Agents = append(resp.Agents, transport.RedistributeAgentReport{
			AgentID:     report.AgentID,
			ActiveCount: report.ActiveCount,
			TargetQuota: report.TargetQuota,
			Assigned:    report.Assigned,
			Shortfall:   report.Shortfall,
		})
		resp.TotalAssigned += report.Assigned
	}

	httpkit.OK(c, resp)
}

func (h *Handler) CreateAgent(c *gin.Context) {
	var req transport.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agent, err := h.svc.CreateAgent(c.Request.Context(), req.Email, req.FullName, req.Role, req.TargetQuota)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToAgentResponse(agent))
}

func (h *Handler) QuotaStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	agent, active, err := h.svc.QuotaStatus(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	headroom := agent.TargetQuota - active
	if headroom < 0 {
		headroom = 0
	}

	httpkit.OK(c, transport.QuotaStatusResponse{
		AgentID:     agent.ID,
		ActiveCount: active,
		TargetQuota: agent.TargetQuota,
		Headroom:    headroom,
	})
}
