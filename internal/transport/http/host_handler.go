package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/domain"
)

type hostHandler struct {
	authoring *app.AuthoringService
	monitor   *app.HostMonitor
	invites   *app.InvitationService
}

type inviteRequest struct {
	Emails string `json:"emails" binding:"required"`
}

func (h *hostHandler) CreateQuiz(c *gin.Context) {
	var req domain.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.authoring.CreateQuiz(c.Request.Context(), currentUser(c).Username, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *hostHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.authoring.ListQuizzes(c.Request.Context(), currentUser(c).Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *hostHandler) Progress(c *gin.Context) {
	progress, err := h.monitor.Progress(c.Request.Context(), currentUser(c).Username, c.Param("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *hostHandler) ExportCSV(c *gin.Context) {
	quizID := c.Param("quizId")
	data, err := h.monitor.ExportCSV(c.Request.Context(), currentUser(c).Username, quizID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="results_`+quizID+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *hostHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.invites.Invite(c.Request.Context(), currentUser(c).Username, c.Param("quizId"), req.Emails)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
