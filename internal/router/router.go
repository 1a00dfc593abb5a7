package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"classsite/internal/config"
	"classsite/internal/handler"
	"classsite/internal/model"
	"classsite/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Site          *handler.SiteHandler
	Health        *handler.HealthHandler
	Announcements *handler.ContentHandler[model.Announcement]
	Assignments   *handler.ContentHandler[model.Assignment]
	Resources     *handler.ContentHandler[model.Resource]
	Gallery       *handler.GalleryHandler
	Rules         *handler.ContentHandler[model.Rule]
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	h Handlers,
	authService service.AuthService,
	gatherer prometheus.Gatherer,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", h.Health.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.Media.Backend == config.MediaLocal {
		e.Static("/media", cfg.Media.Dir)
	}

	api := e.Group("/api")

	// Public routes
	api.GET("/health", h.Health.Health)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me, OptionalGuard(authService))

	api.GET("/site", h.Site.GetSite)
	api.GET("/schedule", h.Site.GetSchedule)
	api.GET("/announcements", h.Announcements.List)
	api.GET("/assignments", h.Assignments.List)
	api.GET("/resources", h.Resources.List)
	api.GET("/gallery", h.Gallery.List)
	api.GET("/rules", h.Rules.List)

	// Staff routes
	admin := api.Group("/admin", Guard(authService, model.RoleTeacher, model.RoleAdmin))

	admin.GET("/site", h.Site.GetSite)
	admin.PUT("/site", h.Site.UpdateSite)
	admin.POST("/schedule/image", h.Site.UploadScheduleImage)
	admin.DELETE("/schedule/image", h.Site.DeleteScheduleImage)

	mountContent(admin.Group("/announcements"), h.Announcements)
	mountContent(admin.Group("/assignments"), h.Assignments)
	mountContent(admin.Group("/resources"), h.Resources)
	gallery := admin.Group("/gallery")
	mountContent(gallery, h.Gallery)
	gallery.POST("/upload", h.Gallery.Upload)
	mountContent(admin.Group("/rules"), h.Rules)

	// User management is admin only
	users := api.Group("/admin/users", Guard(authService, model.RoleAdmin))

	users.GET("", h.Users.ListUsers)
	users.POST("", h.Users.CreateUser)
	users.PUT("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)
	users.POST("/:id/reset-password", h.Users.ResetPassword)
	users.POST("/:id/unlock", h.Users.Unlock)
}

type contentRoutes interface {
	List(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

func mountContent(g *echo.Group, h contentRoutes) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
