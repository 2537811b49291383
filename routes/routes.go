package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/bassem-o/School/config"
	"github.com/bassem-o/School/database"
	"github.com/bassem-o/School/handlers"
	"github.com/bassem-o/School/middlewares"
	"github.com/bassem-o/School/realtime"
	"github.com/bassem-o/School/services"
	"github.com/bassem-o/School/session"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config, db *gorm.DB, hub *realtime.Hub) {
	notifier := database.NewNotifier(db)
	sessions := session.NewStore(db, cfg.SessionMaxAge)

	authSvc := services.NewAuthService(db, sessions, cfg.JWTSecret, cfg.SessionMaxAge, cfg.ProfileTimeout)
	absenceSvc := services.NewAbsenceService(db, notifier, cfg.FetchTimeout)
	delaySvc := services.NewDelayService(db, notifier, cfg.FetchTimeout)

	auth := handlers.NewAuthHandler(authSvc)
	abs := handlers.NewAbsenceRequestHandler(absenceSvc)
	del := handlers.NewDelayRequestHandler(delaySvc)
	hist := handlers.NewHistoryHandler(absenceSvc, delaySvc)
	events := handlers.NewEventsHandler(hub, absenceSvc, delaySvc)
	profile := handlers.NewTeacherProfileHandler(db)
	accounts := handlers.NewTeacherAccountHandler(db)

	// ===== Public =====
	e.GET("/health", handlers.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/auth/admin/login", auth.AdminLogin)
	e.POST("/auth/teacher/login", auth.TeacherLogin)

	// ===== Protected =====
	authMW := middlewares.RequireAuth(cfg.JWTSecret, sessions)

	e.POST("/auth/logout", auth.Logout, authMW)
	e.GET("/me", auth.Me, authMW)

	// ===== Admin dashboard =====
	admin := e.Group("/admin", authMW, middlewares.RequireRole("admin"))

	admin.GET("/absence-requests", abs.List)
	admin.GET("/absence-requests/pending-count", abs.PendingCount)
	admin.POST("/absence-requests/:id/approve", abs.Approve)
	admin.POST("/absence-requests/:id/reject", abs.Reject)
	admin.PATCH("/absence-requests/:id", abs.Annotate)

	admin.GET("/delay-requests", del.List)
	admin.GET("/delay-requests/pending-count", del.PendingCount)
	admin.POST("/delay-requests/:id/approve", del.Approve)
	admin.POST("/delay-requests/:id/reject", del.Reject)
	admin.PATCH("/delay-requests/:id", del.Annotate)

	admin.GET("/history", hist.List)

	admin.GET("/events/absence-requests", events.AbsenceStream)
	admin.GET("/events/delay-requests", events.DelayStream)

	admin.GET("/teacher-accounts", accounts.List)
	admin.POST("/teacher-accounts", accounts.Create)
	admin.POST("/teacher-accounts/:id/reset", accounts.ResetPassword)

	// ===== Teacher dashboard =====
	teacher := e.Group("/teacher", authMW, middlewares.RequireRole("teacher"))

	teacher.GET("/profile", profile.Get)
	teacher.PUT("/credentials", auth.UpdateCredentials)

	teacher.GET("/absence-requests", abs.ListMine)
	teacher.POST("/absence-requests", abs.Create)
	teacher.DELETE("/absence-requests/:id", abs.Delete)

	teacher.GET("/delay-requests", del.ListMine)
	teacher.POST("/delay-requests", del.Create)
	teacher.DELETE("/delay-requests/:id", del.Delete)

	teacher.GET("/events/absence-requests", events.MyAbsenceStream)
	teacher.GET("/events/delay-requests", events.MyDelayStream)
}
