package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/domain"
)

type sessionHandler struct {
	sessions *app.SessionEngine
}

// answersRequest carries the student's current selections, keyed by question index.
type answersRequest struct {
	Answers domain.Answers `json:"answers"`
}

func (h *sessionHandler) key(c *gin.Context) domain.SessionKey {
	return domain.SessionKey{QuizID: c.Param("quizId"), StudentUsername: currentUser(c).Username}
}

// Observe reports the session state; a PUT also carries the answers chosen so
// far, which are submitted if the time has run out.
func (h *sessionHandler) Observe(c *gin.Context) {
	var answers domain.Answers
	if c.Request.Method == http.MethodPut {
		req, ok := bindAnswers(c)
		if !ok {
			return
		}
		answers = req.Answers
	}
	view, err := h.sessions.Observe(c.Request.Context(), h.key(c), answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *sessionHandler) Start(c *gin.Context) {
	view, err := h.sessions.Start(c.Request.Context(), h.key(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *sessionHandler) Submit(c *gin.Context) {
	req, ok := bindAnswers(c)
	if !ok {
		return
	}
	view, err := h.sessions.Submit(c.Request.Context(), h.key(c), req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// bindAnswers accepts an empty body as "no answers".
func bindAnswers(c *gin.Context) (answersRequest, bool) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return answersRequest{}, false
	}
	return req, true
}
