package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/http/handlers"
	"github.com/magdyelboushy-stack/platform/internal/http/middleware"
)

func BuildRouter(ah *handlers.AuthHandlers, fh *handlers.FileHandlers, ph *handlers.PolicyHandlers, idmw *middleware.IdentityMW) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.SecurityHeaders())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	api := r.Group("/api")
	api.GET("/csrf-token", ah.CsrfToken)

	auth := api.Group("/auth")
	auth.POST("/login", ah.Login)
	auth.POST("/register", ah.Register)
	auth.POST("/validate-step", ah.ValidateStep)

	v := api.Group("").Use(idmw.Require())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)
	v.GET("/files/:category/:filename", fh.Serve)

	adm := api.Group("/admin").Use(idmw.Require(), idmw.RequireRole(domain.RoleAdmin))
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}
