package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"healthsync.ai/companion/internal/api"
	"healthsync.ai/companion/internal/auth"
	"healthsync.ai/companion/internal/config"
	"healthsync.ai/companion/internal/core"
	"healthsync.ai/companion/internal/llm"
	"healthsync.ai/companion/internal/logger"
	"healthsync.ai/companion/internal/store"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	seedDemo bool
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthsync",
		Short:         "HealthSync companion API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				logger.Configure(logLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "start with demo medications and tracker values")

	askCmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the health assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "healthsync", Version)
		},
	}

	rootCmd.AddCommand(askCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel == "" {
		logger.Configure(cfg.LogLevel)
	}
	return cfg, nil
}

func runAsk(ctx context.Context, cfg *config.Config, message string) error {
	gateway, err := llm.NewGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize chat gateway: %w", err)
	}
	defer gateway.Close()

	reply, ok := core.NewChatSession(gateway).Exchange(ctx, message)
	if !ok {
		return fmt.Errorf("message cannot be empty")
	}
	fmt.Println(reply)
	return nil
}

func runServer(cfg *config.Config) error {
	logger.Debug("Service starting", "provider", cfg.ChatProvider, "database", cfg.DatabaseURL)

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	gateway, err := llm.NewGateway(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize chat gateway: %w", err)
	}
	defer gateway.Close()

	medications := core.NewMedicationRegistry()
	tracker := core.NewHealthTracker()
	if seedDemo {
		logger.Info("Seeding demo data")
		medications = core.NewMedicationRegistry(core.DefaultMedications()...)
		tracker.SeedPreview()
	}

	apiHandler := api.NewAPIHandler(api.Deps{
		Chats:       core.NewChatService(gateway),
		Medications: medications,
		Tracker:     tracker,
		Profile:     core.NewProfileController(store.NewProfileStore(dbStore)),
		Onboarding:  store.NewOnboardingPrefs(dbStore),
		Issuer:      auth.NewIssuer(cfg.JWTSecret),
	})
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server. Press Ctrl+C to quit.", "addr", serverAddr, "model", gateway.Model())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		return nil
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting gracefully")
	return nil
}
