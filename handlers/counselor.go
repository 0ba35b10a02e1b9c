package handlers

import (
	"net/http"

	"mindwell/models"
	"mindwell/services/counselor"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
)

// CounselorHandler serves the counselor directory.
type CounselorHandler struct {
	Service counselor.CounselorService
}

func NewCounselorHandler(svc counselor.CounselorService) *CounselorHandler {
	return &CounselorHandler{Service: svc}
}

type listCounselorsQuery struct {
	Gender         string `form:"gender" json:"gender" validate:"omitempty,oneof=Male Female"`
	Specialization string `form:"specialization" json:"specialization" validate:"max=100"`
	SessionType    string `form:"sessionType" json:"sessionType" validate:"omitempty,oneof=VideoCall AudioCall Chat InPerson"`
	Accepting      bool   `form:"accepting" json:"accepting"`
}

// ListCounselors handles GET /api/counselors?gender=&specialization=&sessionType=&accepting=.
func (h *CounselorHandler) ListCounselors(c *gin.Context) {
	var q listCounselorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.JSONValidationError(c, map[string]string{"query": "Malformed query parameters"})
		return
	}
	if fields := utils.ValidateStruct(q); fields != nil {
		utils.JSONValidationError(c, fields)
		return
	}

	list, err := h.Service.ListCounselors(c.Request.Context(), models.CounselorFilter{
		Gender:         models.Gender(q.Gender),
		Specialization: q.Specialization,
		SessionType:    models.SessionType(q.SessionType),
		AcceptingOnly:  q.Accepting,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counselors": list})
}

func (h *CounselorHandler) GetCounselor(c *gin.Context) {
	p, err := h.Service.GetCounselor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
