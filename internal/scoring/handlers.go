package scoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/trustlens/internal/idgen"
	"github.com/mbd888/trustlens/internal/traces"
	"github.com/mbd888/trustlens/internal/validation"
)

// Handler provides the HTTP endpoints around the scoring service.
type Handler struct {
	service *Service
	rules   RuleStore
}

// NewHandler creates a scoring HTTP handler.
func NewHandler(service *Service, rules RuleStore) *Handler {
	return &Handler{service: service, rules: rules}
}

// RegisterRoutes sets up the evaluation and history routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/evaluate-user", h.EvaluateUser)
	r.GET("/user-history/:userId", validation.UserIDParamMiddleware("userId"), h.UserHistory)
}

// RegisterRuleRoutes sets up the rule management routes.
func (h *Handler) RegisterRuleRoutes(r *gin.RouterGroup) {
	r.GET("/rules", h.ListRules)
	r.POST("/rules", h.CreateRule)
}

// evaluateRequest is the validated evaluation payload. Signal fields are
// pointers so "missing" and "zero" are distinguishable under binding.
type evaluateRequest struct {
	UserID               string   `json:"user_id" binding:"required"`
	AccountAgeDays       *int     `json:"account_age_days" binding:"required,gte=0"`
	FailedLogins         *int     `json:"failed_logins" binding:"required,gte=0"`
	TransactionsLast24h  *int     `json:"transactions_last_24h" binding:"required,gte=0"`
	IPChanges            *int     `json:"ip_changes" binding:"required,gte=0"`
	AvgTransactionAmount *float64 `json:"avg_transaction_amount" binding:"required,gte=0"`
}

// EvaluateUser handles POST /evaluate-user
func (h *Handler) EvaluateUser(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "user_id and five non-negative signal fields are required",
		})
		return
	}

	userID := validation.SanitizeString(req.UserID, validation.MaxUserIDLength)
	if !validation.IsValidUserID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "user_id must be 1-100 printable characters",
		})
		return
	}

	input := Input{
		"user_id":                userID,
		"account_age_days":       *req.AccountAgeDays,
		"failed_logins":          *req.FailedLogins,
		"transactions_last_24h":  *req.TransactionsLast24h,
		"ip_changes":             *req.IPChanges,
		"avg_transaction_amount": *req.AvgTransactionAmount,
	}

	result, err := h.service.EvaluateUser(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to evaluate user",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UserHistory handles GET /user-history/:userId
//
// Responds with a bare list, most recent first. An unknown user is an empty
// list, not an error.
func (h *Handler) UserHistory(c *gin.Context) {
	userID := c.Param("userId")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	records, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to load history",
		})
		return
	}

	c.JSON(http.StatusOK, records)
}

// ListRules handles GET /rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.rules.ListRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to list rules",
		})
		return
	}
	if rules == nil {
		rules = []RiskRule{}
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// CreateRule handles POST /rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req struct {
		ConditionField string   `json:"condition_field" binding:"required"`
		Operator       Operator `json:"operator" binding:"required"`
		Threshold      *float64 `json:"threshold" binding:"required"`
		Deduction      *int     `json:"deduction" binding:"required"`
		Description    string   `json:"description" binding:"required"`
		IsActive       *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "condition_field, operator, threshold, deduction, and description are required",
		})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rule := &RiskRule{
		ID:             idgen.WithPrefix("rule_"),
		ConditionField: validation.SanitizeString(req.ConditionField, 100),
		Operator:       req.Operator,
		Threshold:      *req.Threshold,
		Deduction:      *req.Deduction,
		Description:    validation.SanitizeString(req.Description, 255),
		IsActive:       active,
		CreatedAt:      time.Now().UTC(),
	}
	if err := ValidateRule(rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_rule", "message": err.Error()})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "scoring.create_rule", traces.RuleID(rule.ID))
	defer span.End()

	if err := h.rules.CreateRule(ctx, rule); err != nil {
		if err == ErrRuleExists {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "rule_exists",
				"message": "a rule for this field and operator already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to create rule",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}
