package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/http/response"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/services"
)

type CompetencyHandler struct {
	log  *logger.Logger
	svc  services.CompetencyService
	maps services.CompetencyMapService
}

func NewCompetencyHandler(log *logger.Logger, svc services.CompetencyService, maps services.CompetencyMapService) *CompetencyHandler {
	return &CompetencyHandler{log: log.With("handler", "CompetencyHandler"), svc: svc, maps: maps}
}

type createCompetencyRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Description          string   `json:"description"`
	Category             string   `json:"category" binding:"required"`
	Level                string   `json:"level"`
	ParentID             *uint    `json:"parentId"`
	BehavioralIndicators []string `json:"behavioralIndicators"`
}

type updateCompetencyRequest struct {
	Name                 *string    `json:"name"`
	Description          *string    `json:"description"`
	Category             *string    `json:"category"`
	Level                *string    `json:"level"`
	ParentID             NullableID `json:"parentId"`
	BehavioralIndicators *[]string  `json:"behavioralIndicators"`
}

type linkCompetencyRequest struct {
	DNAID       uint   `json:"dnaId" binding:"required"`
	Importance  int    `json:"importance"`
	BloomLevel  string `json:"bloomLevel" binding:"omitempty,bloom_level"`
	Description string `json:"description"`
}

// GET /api/competencies
func (h *CompetencyHandler) List(c *gin.Context) {
	comps, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, comps)
}

// GET /api/competencies/:id
func (h *CompetencyHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, detail)
}

// POST /api/competencies
func (h *CompetencyHandler) Create(c *gin.Context) {
	var req createCompetencyRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	comp, err := h.svc.Create(c.Request.Context(), services.CompetencyInput{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Level:                req.Level,
		ParentID:             req.ParentID,
		BehavioralIndicators: req.BehavioralIndicators,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, comp)
}

// PUT /api/competencies/:id
func (h *CompetencyHandler) Update(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req updateCompetencyRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	comp, err := h.svc.Update(c.Request.Context(), id, services.CompetencyPatch{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Level:                req.Level,
		ParentSet:            req.ParentID.Set,
		ParentID:             req.ParentID.Value,
		BehavioralIndicators: req.BehavioralIndicators,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, comp)
}

// GET /api/competencies/course/:courseId
func (h *CompetencyHandler) CourseBreakdown(c *gin.Context) {
	courseID, err := uintParam(c, "courseId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.svc.CourseBreakdown(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/competencies/course/:courseId/map
func (h *CompetencyHandler) CourseMap(c *gin.Context) {
	courseID, err := uintParam(c, "courseId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.maps.CourseCompetencyMap(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/competencies/module/:moduleId
func (h *CompetencyHandler) ModuleCompetencies(c *gin.Context) {
	moduleID, err := uintParam(c, "moduleId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.svc.ModuleCompetencies(c.Request.Context(), moduleID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/competencies/module/:moduleId/competency
func (h *CompetencyHandler) LinkToModule(c *gin.Context) {
	moduleID, err := uintParam(c, "moduleId")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req linkCompetencyRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	link, err := h.svc.LinkToModule(c.Request.Context(), moduleID, services.LinkInput{
		DNAID:       req.DNAID,
		Importance:  req.Importance,
		BloomLevel:  req.BloomLevel,
		Description: req.Description,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, link)
}
