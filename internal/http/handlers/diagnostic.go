package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/http/response"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/services"
)

type DiagnosticHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewDiagnosticHandler(log *logger.Logger, progress services.ProgressService) *DiagnosticHandler {
	return &DiagnosticHandler{log: log.With("handler", "DiagnosticHandler"), progress: progress}
}

type saveResultsRequest struct {
	UserID         uint                   `json:"userId" binding:"required"`
	Skills         map[string]float64     `json:"skills" binding:"required"`
	DiagnosticType string                 `json:"diagnosticType" binding:"required"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// POST /api/diagnostics/results
func (h *DiagnosticHandler) SaveResults(c *gin.Context) {
	var req saveResultsRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	res, err := h.progress.SaveResults(c.Request.Context(), services.DiagnosticSubmission{
		UserID:         req.UserID,
		Skills:         req.Skills,
		DiagnosticType: req.DiagnosticType,
		Metadata:       req.Metadata,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}
