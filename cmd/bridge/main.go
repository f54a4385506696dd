// bridge es la CLI operativa del consent bridge: servir, migrar el
// esquema, sembrar consents desde el catálogo y validar escenarios.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bridgehealth/consentbridge/internal/app"
	"github.com/bridgehealth/consentbridge/internal/config"
	"github.com/bridgehealth/consentbridge/internal/scenario"
	"github.com/bridgehealth/consentbridge/internal/security"
	migrations "github.com/bridgehealth/consentbridge/migrations/postgres"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	cfgPath := envOr("CONFIG_PATH", "config.yaml")

	root := &cobra.Command{
		Use:          "bridge",
		Short:        "Consent bridge: autorización y consents TEFCA",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "ruta del YAML de configuración (env CONFIG_PATH)")

	loadCfg := func() (*config.Config, error) {
		return config.LoadOrDefault(cfgPath)
	}

	// serve
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	})

	// migrate
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de esquema sobre Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver postgres")
			}
			return runMigrations(cmd.Context(), cfg.Storage.DSN)
		},
	})

	// seed
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Siembra el store con los consents que presuponen los escenarios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Catalog == nil {
				return fmt.Errorf("no hay catálogo de escenarios en %s", cfg.Scenarios.Dir)
			}

			now := time.Now().UTC()
			n := 0
			for _, s := range a.Catalog.All() {
				rec := s.ConsentRecord(now)
				if _, err := a.Consents.Upsert(cmd.Context(), rec); err != nil {
					return fmt.Errorf("seed %s: %w", s.ScenarioID, err)
				}
				n++
			}
			fmt.Printf("seeded %d consent records\n", n)
			return nil
		},
	})

	// scenarios
	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Operaciones sobre el catálogo de escenarios",
	}
	scenariosCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Valida los fixture files del catálogo",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			catalog, err := scenario.Load(cfg.Scenarios.Dir)
			if err != nil {
				return err
			}
			if err := catalog.Validate(); err != nil {
				return err
			}
			fmt.Printf("catalog ok: %d authorization, %d role-based, %d tefca\n",
				len(catalog.Authorization), len(catalog.RoleBased), len(catalog.Tefca))
			return nil
		},
	})
	scenariosCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Lista los escenarios del catálogo",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			catalog, err := scenario.Load(cfg.Scenarios.Dir)
			if err != nil {
				return err
			}
			for _, s := range catalog.All() {
				fmt.Printf("%-12s %-6s %-20s %s\n", s.ScenarioID, s.ExpectedDecision, s.RequestingRole, s.Name)
			}
			return nil
		},
	})
	root.AddCommand(scenariosCmd)

	// hash-secret
	root.AddCommand(&cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Genera el hash bcrypt de un client secret para auth.clients",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hash, err := security.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMigrations aplica los .sql embebidos en orden léxico, registrando
// cada versión en schema_migrations.
func runMigrations(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	const bootstrap = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := pool.Exec(ctx, bootstrap); err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name).Scan(&applied)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		fmt.Printf("applied %s\n", name)
	}
	return nil
}
