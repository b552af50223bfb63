package bootstrap

import (
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	httpapi "github.com/teamdesk-hq/teamdesk-backend/internal/api/http"
	"github.com/teamdesk-hq/teamdesk-backend/internal/api/http/middleware"
	"github.com/teamdesk-hq/teamdesk-backend/internal/auth"
	callshttp "github.com/teamdesk-hq/teamdesk-backend/internal/calls/http"
	callrepo "github.com/teamdesk-hq/teamdesk-backend/internal/calls/repository"
	callservice "github.com/teamdesk-hq/teamdesk-backend/internal/calls/service"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	streamhttp "github.com/teamdesk-hq/teamdesk-backend/internal/stream/http"
	streamrepo "github.com/teamdesk-hq/teamdesk-backend/internal/stream/repository"
	streamservice "github.com/teamdesk-hq/teamdesk-backend/internal/stream/service"
	teamhttp "github.com/teamdesk-hq/teamdesk-backend/internal/team/http"
	teamrepo "github.com/teamdesk-hq/teamdesk-backend/internal/team/repository"
	teamservice "github.com/teamdesk-hq/teamdesk-backend/internal/team/service"
)

type RouterDeps struct {
	ServiceName        string
	Version            string
	AdminSecretCode    string
	RateLimitPerMinute int
	DB                 *pgxpool.Pool
	Redis              *redis.Client
	FirebaseAuth       *firebaseauth.Client
	StreamClient       *stream.Client
	Log                *logrus.Logger
}

type Services struct {
	Team   *teamservice.TeamService
	Calls  *callservice.CallService
	Stream *streamservice.StreamService
}

func BuildRouter(dep RouterDeps) (*gin.Engine, *Services) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	userRepo := teamrepo.NewUserRepository(dep.DB)
	callRepo := callrepo.NewCallRepository(dep.DB)
	sessionRepo := streamrepo.NewSessionRepository(dep.Redis)

	accounts := auth.NewFirebaseAccounts(dep.FirebaseAuth)
	teamSvc := teamservice.NewTeamService(userRepo, accounts, dep.Log)
	signupSvc := teamservice.NewAdminSignupService(userRepo, dep.AdminSecretCode)
	callSvc := callservice.NewCallService(callRepo, userRepo)
	streamSvc := streamservice.NewStreamService(dep.StreamClient, sessionRepo, callSvc, userRepo, dep.Log)

	limiter := middleware.NewRateLimiter(dep.RateLimitPerMinute)

	api := r.Group("/api/v1")
	api.Use(auth.FirebaseAuthMiddleware(dep.FirebaseAuth))
	api.Use(auth.WithIdentity(teamSvc))

	teamhttp.New(teamSvc, signupSvc).Register(api, limiter.Handler())
	callshttp.New(callSvc).Register(api.Group("/calls"))
	streamhttp.New(streamSvc, teamSvc).Register(api, limiter.Handler())

	return r, &Services{Team: teamSvc, Calls: callSvc, Stream: streamSvc}
}
