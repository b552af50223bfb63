package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/teamdesk-hq/teamdesk-backend/config"
	"github.com/teamdesk-hq/teamdesk-backend/internal/bootstrap"
	callrepo "github.com/teamdesk-hq/teamdesk-backend/internal/calls/repository"
	callservice "github.com/teamdesk-hq/teamdesk-backend/internal/calls/service"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	streamrepo "github.com/teamdesk-hq/teamdesk-backend/internal/stream/repository"
	streamservice "github.com/teamdesk-hq/teamdesk-backend/internal/stream/service"
	teamrepo "github.com/teamdesk-hq/teamdesk-backend/internal/team/repository"
	teamservice "github.com/teamdesk-hq/teamdesk-backend/internal/team/service"
)

// The worker runs one-off maintenance commands against the same
// stores the API uses:
//
//	worker end-call <stream_call_id>   end a remote room by its provider id
//	worker sweep-orphans               end remote rooms with stale ledger entries
//	worker migrate-flags               rewrite legacy people-manager values and role casing
//	worker fix-roles                   rewrite lowercase role labels only
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if len(os.Args) < 2 {
		log.Fatal("usage: worker <end-call|sweep-orphans|migrate-flags|fix-roles> [args]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, &cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	switch os.Args[1] {
	case "end-call":
		if len(os.Args) < 3 {
			log.Fatal("usage: worker end-call <stream_call_id>")
		}
		streams := buildStreamService(ctx, cfg, db, log)
		result := streams.EndRemoteCallByStreamID(ctx, os.Args[2])
		entry := log.WithField("stream_call_id", os.Args[2]).WithField("detail", result.Message)
		if !result.Success {
			entry.Fatal("end call failed")
		}
		entry.Info("call ended")

	case "sweep-orphans":
		streams := buildStreamService(ctx, cfg, db, log)
		swept, err := streams.SweepOrphans(ctx, cfg.App.SweepMinAge)
		if err != nil {
			log.WithError(err).Fatal("sweep failed")
		}
		log.WithField("swept", swept).Info("sweep complete")

	case "migrate-flags":
		users := teamrepo.NewUserRepository(db)
		team := teamservice.NewTeamService(users, nil, log)
		flags, roles, err := team.MigrateLegacyFlags(ctx)
		if err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.WithFields(logrus.Fields{
			"people_manager_rows": flags,
			"role_rows":           roles,
		}).Info("legacy flags migrated")

	case "fix-roles":
		users := teamrepo.NewUserRepository(db)
		rows, err := users.FixRoleCapitalization(ctx)
		if err != nil {
			log.WithError(err).Fatal("role fix failed")
		}
		log.WithField("role_rows", rows).Info("role labels fixed")

	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func buildStreamService(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, log *logrus.Logger) *streamservice.StreamService {
	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}

	users := teamrepo.NewUserRepository(db)
	calls := callservice.NewCallService(callrepo.NewCallRepository(db), users)
	sessions := streamrepo.NewSessionRepository(rdb)
	client := stream.NewClient(cfg.Stream.APIKey, cfg.Stream.APISecret, cfg.Stream.BaseURL)

	return streamservice.NewStreamService(client, sessions, calls, users, log)
}
