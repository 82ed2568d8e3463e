package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ougirez/welfare-portal/internal/api"
	"github.com/ougirez/welfare-portal/internal/pkg/config"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/store"
	"github.com/ougirez/welfare-portal/internal/pkg/store/xpgx"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "welfare-portal",
		Short: "Welfare portal backend: location scopes, reports and grant submissions",
		RunE:  runServe,
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (env WELFARE_* only when empty)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: serving %s against %s\n", cfg.Server.Addr, cfg.Welfare.BaseURL)
			return nil
		},
	})
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err = logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.Postgres.DSN != "" {
		pool, err := xpgx.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.ConnectTimeout)
		if err != nil {
			return err
		}
		defer pool.Close()

		st = store.NewStore(pool)
		if err = st.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Infof(ctx, "api check history enabled")
	}

	svc, err := api.NewAPIService(cfg, st, nil)
	if err != nil {
		return err
	}

	go svc.Serve()
	logger.Info(ctx, "listening", "addr", cfg.Server.Addr, "welfare_api", cfg.Welfare.BaseURL, "audit", st != nil)

	<-ctx.Done()
	logger.Infof(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err = svc.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %s", err.Error())
		return err
	}
	return nil
}
