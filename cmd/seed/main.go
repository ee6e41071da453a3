// Command seed applies the schema and creates the accounts that cannot be
// registered through the API: admins, and optionally a demo rider and driver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/configparser"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/passhash"
	"github.com/hpyride/hpyride/pkg/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	schemaPath = flag.String("schema", "migrations/001_init.up.sql", "Schema file applied before seeding; empty to skip")
	adminEmail = flag.String("admin-email", "admin@hpyride.app", "Email of the admin account")
	adminName  = flag.String("admin-name", "Admin", "Name of the admin account")
	demo       = flag.Bool("demo", false, "Also create a demo rider and driver")
)

// ADMIN_PASSWORD and DEMO_PASSWORD are read from the environment so they stay out of shell history.
const (
	adminPasswordEnv = "ADMIN_PASSWORD"
	demoPasswordEnv  = "DEMO_PASSWORD"
)

var errNoPassword = errors.New("password not set")

type account struct {
	Name     string
	Email    string
	Role     types.UserRole
	Password string
}

func main() {
	flag.Parse()

	ctx := wrap.WithAction(context.Background(), "seed")
	log := logger.InitLogger("seed", logger.LevelInfo)

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	var cfg struct {
		Database config.DatabaseConfig
	}
	if err := configparser.LoadAndParseYaml(*configPath, &cfg, config.EnvFile()); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	accounts, err := accountsFromEnv()
	if err != nil {
		return err
	}

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Pool.Close()

	if *schemaPath != "" {
		if err := applySchema(ctx, client.Pool, *schemaPath); err != nil {
			return err
		}
		log.Info(ctx, "schema applied", "file", *schemaPath)
	}

	created, err := seedAccounts(ctx, client.Pool, accounts)
	if err != nil {
		return err
	}

	log.Info(ctx, "accounts ensured", "total", len(accounts), "created", created)
	return nil
}

func accountsFromEnv() ([]account, error) {
	adminPass := os.Getenv(adminPasswordEnv)
	if adminPass == "" {
		return nil, fmt.Errorf("%w: %s", errNoPassword, adminPasswordEnv)
	}

	accounts := []account{
		{Name: *adminName, Email: *adminEmail, Role: types.RoleAdmin, Password: adminPass},
	}

	if *demo {
		demoPass := os.Getenv(demoPasswordEnv)
		if demoPass == "" {
			return nil, fmt.Errorf("%w: %s", errNoPassword, demoPasswordEnv)
		}
		accounts = append(accounts,
			account{Name: "Demo Rider", Email: "rider@hpyride.app", Role: types.RoleRider, Password: demoPass},
			account{Name: "Demo Driver", Email: "driver@hpyride.app", Role: types.RoleDriver, Password: demoPass},
		)
	}

	return accounts, nil
}

func applySchema(ctx context.Context, db *pgxpool.Pool, path string) error {
	schema, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// no arguments: pgx sends it with the simple protocol, which allows several statements
	if _, err := db.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func seedAccounts(ctx context.Context, db *pgxpool.Pool, accounts []account) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
INSERT INTO users (name, email, role, password_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO NOTHING;
`

	created := 0
	for _, a := range accounts {
		hashed, err := passhash.HashPassword(a.Password)
		if err != nil {
			return 0, fmt.Errorf("hash password of %s: %w", a.Email, err)
		}

		tag, err := tx.Exec(ctx, q, a.Name, a.Email, a.Role.String(), hashed)
		if err != nil {
			return 0, fmt.Errorf("insert user %s: %w", a.Email, err)
		}
		created += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}
