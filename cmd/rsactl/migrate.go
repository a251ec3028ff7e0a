package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/infra"
	"toy-rsa-service/internal/repository"
	"toy-rsa-service/internal/usecase"
	"toy-rsa-service/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  "Manage database migrations for the keyring database (DATABASE_URL, MIGRATIONS_DIR)",
	}
	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateStatusCmd())
	return cmd
}

// openMigrationService はDATABASE_URLに接続し、MigrationServiceを組み立てる。
// MIGRATIONS_DIR が未設定ならバイナリに埋め込まれたSQLを使う。
func openMigrationService() (*usecase.MigrationService, *gorm.DB, error) {
	cfg := config.Load()

	db, err := infra.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dir := cfg.MigrationsDir
	if dir != "" {
		// 絶対パスに変換
		if dir, err = filepath.Abs(dir); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to resolve migrations directory: %w", err)
		}
	}

	repo := repository.NewMigrationRepository(db)
	return usecase.NewMigrationService(repo, migrations.Source(dir)), db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long:  "Apply all pending migrations to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := openMigrationService()
			if err != nil {
				return err
			}
			defer closeDB(db)

			appliedCount, err := svc.ApplyMigrations(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if appliedCount == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", appliedCount)
			}
			return nil
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  "Show the status of all migrations (applied/pending)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := openMigrationService()
			if err != nil {
				return err
			}
			defer closeDB(db)

			all, err := svc.GetMigrationStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), all)
			}

			// テーブル形式で出力
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
			fmt.Fprintln(w, "-------\t----\t------\t----------")

			for _, migration := range all {
				appliedAt := "-"
				if migration.AppliedAt != nil {
					appliedAt = migration.AppliedAt.Format("2006-01-02 15:04:05")
				}

				status := "pending"
				if migration.Status == domain.MigrationStatusApplied {
					status = "applied"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", migration.Version, migration.Name, status, appliedAt)
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			return nil
		},
	}
}
