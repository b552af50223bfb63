package database

import (
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/teamdesk-hq/teamdesk-backend/config"
)

//go:embed migrations/*.sql
var EmbedMigrations embed.FS

// Migrate opens a short-lived database/sql connection and applies
// any pending migrations, then closes it. The pgxpool used by the
// repositories is opened separately.
func Migrate(cfg *config.DatabaseConfig) error {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return MigrateDB(db)
}

func MigrateDB(db *sql.DB) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}

	return nil
}
