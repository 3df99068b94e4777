package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/config"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/auth"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/database"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/notifications"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/repositories"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/storage"
	"github.com/magdyelboushy-stack/platform/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config

	DB          *gorm.DB
	RedisClient *redis.Client

	UserRepo    domain.UserRepository
	SessionRepo domain.SessionRepository
	CsrfRepo    domain.CsrfTokenRepository
	FileRepo    domain.FileRepository
	BlobStore   domain.BlobStore

	PasswordSvc      domain.PasswordService
	TokenSvc         domain.TokenService
	NotificationSvc  domain.NotificationService
	Lockout          domain.LockoutTracker
	Validator        domain.StepValidator
	PolicySvc        domain.PolicyService
	AuthSvc          domain.AuthService
	FileAccessSvc    domain.FileAccessService
	IdentityResolver domain.IdentityResolver
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return nil, err
	}
	c.DB = gdb

	c.RedisClient = database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB).Client

	blobStore, err := storage.NewLocalStore(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	c.BlobStore = blobStore

	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return nil, err
	}

	c.UserRepo = repositories.NewUserRepository(gdb)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, cfg.SessionTTL)
	c.CsrfRepo = repositories.NewCsrfRepository(c.RedisClient, cfg.CsrfTTL)
	c.FileRepo = repositories.NewFileRepository(gdb)

	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL)
	c.NotificationSvc = notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	c.Lockout = services.NewLockoutTracker(c.RedisClient, services.LockoutConfig{
		MaxAttempts:   cfg.LockoutMaxAttempts,
		FailureWindow: cfg.LockoutWindow,
		LockDuration:  cfg.LockoutDuration,
	})
	c.Validator = services.NewStepValidator(c.UserRepo)
	c.PolicySvc = services.NewPolicyService(cas.E)

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.SessionRepo,
		c.CsrfRepo,
		c.Lockout,
		c.PasswordSvc,
		c.TokenSvc,
		c.NotificationSvc,
		c.Validator,
		c.FileRepo,
		c.BlobStore,
		cfg.SessionTTL,
		cfg.AccessTTL,
	)
	c.FileAccessSvc = services.NewFileAccessService(c.FileRepo, c.BlobStore, c.PolicySvc)
	c.IdentityResolver = services.NewIdentityResolver(c.TokenSvc, c.SessionRepo, c.UserRepo)

	return c, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
