package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/cropstech/crops-backend/config"
	_ "github.com/cropstech/crops-backend/docs"
	"github.com/cropstech/crops-backend/internal/api/handler"
	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/pkg/middleware"
)

// NewRouter assembles the API surface. All routes under /api/v1 require
// a bearer token resolved to a user id by the auth middleware.
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("crops-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(rate.Limit(50), 100))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWT.Secret))
	{
		v1.GET("/preferences", h.GetPreferences)
		v1.PUT("/preferences", h.UpdatePreferences)

		v1.GET("/notifications", h.ListNotifications)
		v1.POST("/notifications/:id/read", h.MarkNotificationRead)
		v1.POST("/notifications/read-all", h.MarkAllNotificationsRead)

		v1.POST("/boards/:board_id/follow", h.Follow)
		v1.DELETE("/boards/:board_id/follow", h.Unfollow)
		v1.GET("/followed-boards", h.FollowedBoards)

		v1.POST("/events", h.IngestEvent)
	}

	return r
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
			return model.EventType(fl.Field().String()).Notifiable()
		})
	}
}
