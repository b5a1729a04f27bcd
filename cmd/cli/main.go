package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rentalhub/internal/caching"
	"rentalhub/internal/config"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/jobs"
	applog "rentalhub/internal/logger"
	"rentalhub/internal/repositories"
	"rentalhub/internal/services"
	"rentalhub/pkg/database"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rentalhub-cli",
		Short:        "RentalHub maintenance commands",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		seedAdminCmd(),
		leaseJobCmd("expire-leases", "Expire leases whose end date has passed", func(tenants services.TenantService, cfg *config.Config, logger *slog.Logger) jobs.Job {
			return jobs.NewLeaseExpiryJob(tenants, logger)
		}),
		leaseJobCmd("remind-leases", "Queue reminders for leases ending soon", func(tenants services.TenantService, cfg *config.Config, logger *slog.Logger) jobs.Job {
			return jobs.NewLeaseReminderJob(tenants, cfg.Jobs.LeaseReminderDays, logger)
		}),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  repositories.Store
	close  func()
}

func connect(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := applog.New(cfg.LogLevel, cfg.Environment)

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  repositories.NewStore(pool),
		close:  pool.Close,
	}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := database.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			applied, err := database.Migrate(ctx, pool, applog.New(cfg.LogLevel, cfg.Environment))
			if err != nil {
				return err
			}
			fmt.Printf("%d migration(s) applied\n", len(applied))
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")
			generated := password == ""
			if generated {
				password = services.GenerateTemporaryPassword()
			}

			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			admin, created, err := services.EnsureAdmin(cmd.Context(), e.store.Users(), email, password, name)
			if err != nil {
				return err
			}
			if !created {
				fmt.Printf("admin %s already exists\n", admin.Email)
				return nil
			}
			fmt.Printf("admin %s created (id %s)\n", admin.Email, admin.ID)
			if generated {
				fmt.Printf("temporary password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().String("email", "", "Admin email address")
	cmd.Flags().String("password", "", "Admin password (generated when empty)")
	cmd.Flags().String("name", "Admin", "Admin first name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

type jobFactory func(tenants services.TenantService, cfg *config.Config, logger *slog.Logger) jobs.Job

// leaseJobCmd runs one lease maintenance job once, outside the server's scheduler.
func leaseJobCmd(use, short string, build jobFactory) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			redisClient := caching.NewRedisClient(e.cfg.Redis.Addr, e.cfg.Redis.Password, e.cfg.Redis.DB)
			defer redisClient.Close()

			tenants := services.NewTenantService(e.store, hierarchy.NewResolver(e.store.Users()),
				caching.NewRedisCacheService(redisClient, e.logger), services.NewRedisNotifier(redisClient, e.logger), e.logger)
			return build(tenants, e.cfg, e.logger).Run(cmd.Context())
		},
	}
}
