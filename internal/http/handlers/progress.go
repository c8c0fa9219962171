package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/http/response"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
	summary  services.SummaryService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService, summary services.SummaryService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progress: progress, summary: summary}
}

type upsertProgressRequest struct {
	DNAID        uint     `json:"dnaId" binding:"required"`
	CurrentLevel *string  `json:"currentLevel" binding:"omitempty,mastery_level"`
	TargetLevel  *string  `json:"targetLevel" binding:"omitempty,mastery_level"`
	Progress     *float64 `json:"progress" binding:"omitempty,gte=0,lte=100"`
}

// GET /api/competencies/user/:userId/progress
func (h *ProgressHandler) List(c *gin.Context) {
	userID, err := uintParam(c, "userId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	rows, err := h.progress.ListProgress(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /api/competencies/user/:userId/progress
func (h *ProgressHandler) Upsert(c *gin.Context) {
	userID, err := uintParam(c, "userId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req upsertProgressRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	row, err := h.progress.UpsertProgress(c.Request.Context(), userID, services.ManualProgressUpdate{
		DNAID:        req.DNAID,
		CurrentLevel: req.CurrentLevel,
		TargetLevel:  req.TargetLevel,
		Progress:     req.Progress,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, row)
}

// GET /api/competencies/user/:userId/summary
func (h *ProgressHandler) Summary(c *gin.Context) {
	userID, err := uintParam(c, "userId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.summary.Summary(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
