package claims

import (
	"errors"

	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/internal/rules"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/bonapart3/claimagent-sub002/pkg/common"
	"github.com/bonapart3/claimagent-sub002/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles claim decision HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new claims handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers claim decision routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	{
		claims.POST("/:id/evaluate", h.Evaluate)
		claims.GET("/:id/decisions/latest", h.GetLatestDecision)
		claims.GET("/:id/coverage", h.EvaluateCoverage)
		claims.GET("/:id/risk", h.ScoreRisk)
		claims.GET("/:id/obligations", h.GetObligations)
		claims.POST("/:id/status", middleware.RequireRole("adjuster", "supervisor", "admin"), h.ChangeStatus)
	}
	rg.GET("/jurisdictions/:state/rules", h.ListJurisdictionRules)
}

// Evaluate runs a full decision cycle for a claim
func (h *Handler) Evaluate(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	// Body is optional; an empty body runs a plain re-evaluation with no
	// extra triggers
	var req EvaluateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondWithError(c, common.NewBadRequestError("Invalid request body", err))
			return
		}
	}

	artifacts, err := h.service.RunDecisionCycle(c.Request.Context(), claimID, req.Triggers, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "Failed to run decision cycle")
		return
	}

	// Each cycle creates a new decision artifact record
	common.CreatedResponse(c, EvaluateResponse{
		DecisionID:            artifacts.ID,
		RiskScore:             artifacts.Risk.Score,
		RiskTier:              artifacts.Risk.Tier,
		CoverageApplies:       artifacts.Coverage.CoverageApplies(),
		OverallRecommendation: artifacts.Escalation.OverallRecommendation,
		RequiresHumanReview:   artifacts.Escalation.RequiresHumanReview,
		Status:                artifacts.StatusAfter,
		SIUReferral:           artifacts.Risk.SIUReferral,
	})
}

// GetLatestDecision returns the most recent decision artifacts for a claim
func (h *Handler) GetLatestDecision(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	artifacts, err := h.service.GetLatestDecision(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch latest decision")
		return
	}

	common.SuccessResponse(c, artifacts)
}

// EvaluateCoverage runs coverage analysis alone
func (h *Handler) EvaluateCoverage(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	result, err := h.service.EvaluateCoverage(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err, "Failed to evaluate coverage")
		return
	}

	common.SuccessResponse(c, result)
}

// ScoreRisk runs fraud scoring alone
func (h *Handler) ScoreRisk(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	risk, err := h.service.ScoreRisk(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err, "Failed to score risk")
		return
	}

	common.SuccessResponse(c, risk)
}

// GetObligations lists the deadline obligations for a claim
func (h *Handler) GetObligations(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	resp, err := h.service.GetObligations(c.Request.Context(), claimID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch obligations")
		return
	}

	common.SuccessResponse(c, resp)
}

// ChangeStatus applies a requested lifecycle transition
func (h *Handler) ChangeStatus(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid claim ID", err))
		return
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBadRequestError("Invalid request body", err))
		return
	}

	state, err := h.service.RequestStatusChange(c.Request.Context(), claimID, req.Status, actorFrom(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			common.RespondWithError(c, common.NewUnprocessableError(err.Error(), err))
		case errors.Is(err, ErrVersionConflict):
			common.RespondWithError(c, common.NewConflictError("Claim was modified concurrently, retry", err))
		default:
			respondServiceError(c, err, "Failed to change claim status")
		}
		return
	}

	common.SuccessResponse(c, state)
}

// ListJurisdictionRules returns the versioned rule history for a state
func (h *Handler) ListJurisdictionRules(c *gin.Context) {
	state := c.Param("state")
	if state == "" {
		common.RespondWithError(c, common.NewBadRequestError("Missing state", nil))
		return
	}

	ruleList, err := h.service.ListJurisdictionRules(c.Request.Context(), state)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch jurisdiction rules")
		return
	}

	common.SuccessResponse(c, ruleList)
}

// respondServiceError maps known domain errors onto the application error
// taxonomy; anything unmapped degrades to an opaque 500 with the fallback
// message so internal detail never leaks
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrClaimNotFound):
		common.RespondWithError(c, common.NewNotFoundError("Claim not found", err))
	case errors.Is(err, rules.ErrRuleNotFound):
		common.RespondWithError(c, common.NewNotFoundError("No jurisdiction rule on file", err))
	case errors.Is(err, snapshot.ErrInvalidSnapshot):
		common.RespondWithError(c, common.NewUnprocessableError("Claim data is incomplete for evaluation", err))
	default:
		common.RespondWithError(c, common.NewInternalServerError(fallback))
	}
}

// actorFrom extracts the authenticated user for attribution; unauthenticated
// internal calls attribute to the system actor
func actorFrom(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok && id != "" {
			return id
		}
	}
	return "system"
}
