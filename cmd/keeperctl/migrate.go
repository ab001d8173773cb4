package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var errNoDSN = errors.New("database DSN is required: pass --dsn or set DATABASE_DSN")

func newMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres:// connection URL (default $DATABASE_DSN)")

	open := func() (*migrate.Migrate, error) {
		if dsn == "" {
			dsn = os.Getenv("DATABASE_DSN")
		}
		if dsn == "" {
			return nil, errNoDSN
		}
		return db.NewMigrator(dsn)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()

			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run - database is up to date")
					return nil
				}
				return fmt.Errorf("migration failed: %w", err)
			}
			return printVersion(cmd, m, "Migrated to version")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			m, err := open()
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()

			if err := m.Steps(-steps); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return printVersion(cmd, m, "Rolled back to version")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()
			return printVersion(cmd, m, "Current version")
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, m *migrate.Migrate, prefix string) error {
	out := cmd.OutOrStdout()
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "No migrations have been applied yet")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d\n", prefix, version)
	if dirty {
		fmt.Fprintln(out, "Warning: database is in a dirty state")
	}
	return nil
}
