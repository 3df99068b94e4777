package e2e

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/magdyelboushy-stack/platform/domain"
	httpx "github.com/magdyelboushy-stack/platform/internal/http"
	"github.com/magdyelboushy-stack/platform/internal/http/handlers"
	"github.com/magdyelboushy-stack/platform/internal/http/middleware"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/auth"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/notifications"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/repositories"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/storage"
	"github.com/magdyelboushy-stack/platform/internal/services"
)

const (
	testCookieName = "platform_session"
	testJWTSecret  = "e2e-test-secret"
)

// Matcher mirrors config/casbin_model.conf.
const casbinModelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// TestSuite wires the full stack against in-memory backends: SQLite for
// relational data, miniredis for tokens, counters and sessions, and a
// temp dir for blobs.
type TestSuite struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Mini   *miniredis.Miniredis

	UserRepo    domain.UserRepository
	SessionRepo domain.SessionRepository
	CsrfRepo    domain.CsrfTokenRepository
	FileRepo    domain.FileRepository
	BlobStore   domain.BlobStore
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenService
	PolicySvc   domain.PolicyService
	AuthSvc     domain.AuthService
}

func init() {
	gin.SetMode(gin.TestMode)
	// Optional local overrides, same mechanism as the service itself.
	_ = godotenv.Load(".env")
}

// suiteSeq distinguishes each suite's in-memory database.
var suiteSeq atomic.Int64

// newSuite builds a fresh, isolated stack per test.
func newSuite(t *testing.T) *TestSuite {
	t.Helper()

	// A plain ":memory:" DSN gives every pool connection its own empty
	// database; a uniquely named shared-cache DSN keeps one database per
	// suite across all connections.
	dsn := fmt.Sprintf("file:e2e_%d?mode=memory&cache=shared", suiteSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&repositories.DBUser{}, &repositories.DBStoredFile{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	blobStore, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		t.Fatalf("failed to create casbin adapter: %v", err)
	}
	m, err := casbinmodel.NewModelFromString(casbinModelText)
	if err != nil {
		t.Fatalf("failed to parse casbin model: %v", err)
	}
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(redisClient, 24*time.Hour)
	csrfRepo := repositories.NewCsrfRepository(redisClient, 30*time.Minute)
	fileRepo := repositories.NewFileRepository(db)

	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService(testJWTSecret, "platform-test", 15*time.Minute)
	notificationSvc := notifications.NewTwilioService("", "", "")
	lockout := services.NewLockoutTracker(redisClient, services.LockoutConfig{
		MaxAttempts:   5,
		FailureWindow: 15 * time.Minute,
		LockDuration:  15 * time.Minute,
	})
	validator := services.NewStepValidator(userRepo)
	policySvc := services.NewPolicyService(enforcer)

	authSvc := services.NewAuthService(
		userRepo, sessionRepo, csrfRepo, lockout,
		passwordSvc, tokenSvc, notificationSvc, validator,
		fileRepo, blobStore,
		24*time.Hour, 15*time.Minute,
	)
	fileAccessSvc := services.NewFileAccessService(fileRepo, blobStore, policySvc)
	identityResolver := services.NewIdentityResolver(tokenSvc, sessionRepo, userRepo)

	ah := handlers.NewAuthHandlers(authSvc, csrfRepo, validator, testCookieName, 24*time.Hour)
	fh := handlers.NewFileHandlers(fileAccessSvc)
	ph := &handlers.PolicyHandlers{PolicySvc: policySvc}
	idmw := middleware.NewIdentityMW(identityResolver, testCookieName)

	return &TestSuite{
		Router:      httpx.BuildRouter(ah, fh, ph, idmw),
		DB:          db,
		Redis:       redisClient,
		Mini:        mr,
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		CsrfRepo:    csrfRepo,
		FileRepo:    fileRepo,
		BlobStore:   blobStore,
		PasswordSvc: passwordSvc,
		TokenSvc:    tokenSvc,
		PolicySvc:   policySvc,
		AuthSvc:     authSvc,
	}
}
