package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/services"
)

// GoalHandler handles goal management and progress requests.
type GoalHandler struct {
	goalService services.GoalServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GoalRequest represents the request payload for creating or updating a goal.
type GoalRequest struct {
	Name       string          `json:"name" binding:"required,min=1,max=100"`
	Amount     float64         `json:"amount" binding:"gt=0"`
	Currency   string          `json:"currency" binding:"omitempty,display_currency"`
	TargetDate *time.Time      `json:"target_date"`
	LinkType   models.LinkType `json:"link_type" binding:"omitempty,link_type"`
	LinkID     string          `json:"link_id"`
	Hidden     bool            `json:"hidden"`
	Color      string          `json:"color" binding:"omitempty,hex_color"`
}

func (r *GoalRequest) toInput() services.GoalInput {
	return services.GoalInput{
		Name:       r.Name,
		Amount:     r.Amount,
		Currency:   r.Currency,
		TargetDate: r.TargetDate,
		LinkType:   r.LinkType,
		LinkID:     r.LinkID,
		Hidden:     r.Hidden,
		Color:      r.Color,
	}
}

// GetGoals evaluates and returns every goal's progress, with display-formatted
// current and target amounts.
func (h *GoalHandler) GetGoals(c *gin.Context) {
	results, err := h.goalService.Evaluate(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	type goalView struct {
		services.GoalProgress
		CurrentDisplay string `json:"current_display"`
		TargetDisplay  string `json:"target_display"`
	}
	views := make([]goalView, 0, len(results))
	for _, r := range results {
		views = append(views, goalView{
			GoalProgress:   r,
			CurrentDisplay: formatAmount(r.Current, r.Currency),
			TargetDisplay:  formatAmount(r.Target, r.Currency),
		})
	}

	c.JSON(http.StatusOK, gin.H{"goals": views})
}

// CreateGoal adds a new goal.
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	goal, err := h.goalService.CreateGoal(req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// UpdateGoal replaces a goal's editable fields.
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Param("id"), req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal removes a goal.
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	if err := h.goalService.DeleteGoal(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

// Celebrate acknowledges a reached goal's celebration, at most once.
func (h *GoalHandler) Celebrate(c *gin.Context) {
	if err := h.goalService.MarkCelebrated(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Goal celebrated"})
}
