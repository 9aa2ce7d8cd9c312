package api

import (
	"database/sql"
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "marketadmin/internal/config"
	h "marketadmin/internal/http/handlers"
	"marketadmin/internal/http/middleware"
	"marketadmin/internal/metrics"
	"marketadmin/internal/services"
)

// NewRouter wires the screen routes. db may be nil when collections come
// from the upstream API.
func NewRouter(env intconfig.Env, svc *services.ScreenService, db *sql.DB) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins), metrics.Middleware())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}
	if env.JWTSecret == "" {
		log.Printf("warning: JWT_SECRET is empty, screen routes will refuse every request")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"success": false,
			"message": "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	sys := h.System{DB: db, DataSource: env.DataSource}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", sys.Health)
		api.GET("/db-check", sys.DBCheck)

		authed := api.Group("", middleware.Auth(env.JWTSecret))
		authed.GET("/routes", middleware.RequireRoles("admin"), h.Routes)

		screens := h.Screens{Svc: svc}
		sg := authed.Group("/screens")
		sg.GET("", screens.List)
		sg.GET("/:resource", screens.View)
		sg.DELETE("/:resource", screens.Close)
		sg.POST("/:resource/refresh", screens.Refresh)
		sg.GET("/:resource/export", screens.Export)
		sg.POST("/:resource/items", screens.Create)
		sg.PUT("/:resource/items/:id", screens.Update)
		sg.PATCH("/:resource/items/:id", screens.Update)
		sg.DELETE("/:resource/items/:id", screens.Delete)
	}

	h.SetRouter(r)
	return r
}
