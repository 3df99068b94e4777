package app

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/config"
	httpx "github.com/magdyelboushy-stack/platform/internal/http"
	"github.com/magdyelboushy-stack/platform/internal/http/handlers"
	"github.com/magdyelboushy-stack/platform/internal/http/middleware"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.RedisClient.Ping(context.Background()).Err(); err != nil {
		return err
	}

	seedFilePolicies(container.PolicySvc)

	authH := handlers.NewAuthHandlers(container.AuthSvc, container.CsrfRepo, container.Validator, cfg.SessionCookieName, cfg.SessionTTL)
	fileH := handlers.NewFileHandlers(container.FileAccessSvc)
	polH := &handlers.PolicyHandlers{PolicySvc: container.PolicySvc}
	idMW := middleware.NewIdentityMW(container.IdentityResolver, cfg.SessionCookieName)

	r := httpx.BuildRouter(authH, fileH, polH, idMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

// seedFilePolicies installs the default role overrides for protected
// file categories when the policy table is empty.
func seedFilePolicies(policySvc domain.PolicyService) {
	if len(policySvc.GetPolicies()) > 0 {
		return
	}
	_ = policySvc.AddPolicy("role_admin", "files/*", "read")
	_ = policySvc.AddPolicy("role_teacher", "files/*", "read")
	_ = policySvc.AddPolicy("role_assistant", "files/thumbnails", "read")
	log.Println("casbin: seeded default file policies")
}
