package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/auth"
	"quiz-conductor/internal/domain"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Accounts  *app.AccountService
	Authoring *app.AuthoringService
	Sessions  *app.SessionEngine
	Monitor   *app.HostMonitor
	Invites   *app.InvitationService
	Tokens    *auth.Tokens
}

func NewRouter(s Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	authH := &authHandler{accounts: s.Accounts}
	hostH := &hostHandler{authoring: s.Authoring, monitor: s.Monitor, invites: s.Invites}
	sessionH := &sessionHandler{sessions: s.Sessions}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/", quizLinkRedirect)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", authH.Register)
		authRoutes.POST("/login", authH.Login)
		authRoutes.GET("/profile", authRequired(s.Tokens), authH.Profile)

		quizzes := api.Group("/quizzes", authRequired(s.Tokens))
		{
			host := quizzes.Group("", requireRole(domain.RoleHost))
			host.POST("", hostH.CreateQuiz)
			host.GET("", hostH.ListQuizzes)
			host.GET("/:quizId/progress", hostH.Progress)
			host.GET("/:quizId/results.csv", hostH.ExportCSV)
			host.POST("/:quizId/invites", hostH.Invite)

			student := quizzes.Group("/:quizId/session", requireRole(domain.RoleStudent))
			student.GET("", sessionH.Observe)
			student.PUT("", sessionH.Observe)
			student.POST("/start", sessionH.Start)
			student.POST("/submit", sessionH.Submit)
		}
	}
	return router
}

// quizLinkRedirect turns a shared ?quiz_id= link into the session endpoint.
func quizLinkRedirect(c *gin.Context) {
	quizID := c.Query("quiz_id")
	if quizID == "" {
		c.JSON(http.StatusOK, gin.H{"service": "quiz-conductor"})
		return
	}
	c.Redirect(http.StatusFound, "/api/quizzes/"+url.PathEscape(quizID)+"/session")
}
