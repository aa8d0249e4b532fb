// teamup-devstore runs the in-memory reference implementation of the
// membership and alert stores for local development. The client core has no
// CLI surface of its own; this binary only exists so the orchestration can
// be exercised against live HTTP endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teamup/internal/api"
	"teamup/internal/async"
	"teamup/internal/devstore"
	"teamup/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teamup-devstore",
		Short: "In-memory membership/alert store for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("addr", ":8000", "listen address")
	cmd.Flags().Bool("debug", false, "enable request logging and gin debug mode")
	cmd.Flags().Bool("cors", true, "enable permissive CORS for app development")
	cmd.Flags().Bool("seed", false, "seed a demo activity with pending join requests")

	viper.SetEnvPrefix("TEAMUP_DEVSTORE")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context) error {
	logger := logging.NewComponentLogger("devstore")

	store := devstore.NewStore()
	if viper.GetBool("seed") {
		seedDemo(store, logger)
	}

	router := devstore.NewRouter(store, devstore.RouterConfig{
		Debug:      viper.GetBool("debug"),
		EnableCORS: viper.GetBool("cors"),
	})

	server := &http.Server{
		Addr:         viper.GetString("addr"),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	async.Go(logger, "http-listener", func() {
		logger.Info("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func seedDemo(store *devstore.Store, logger logging.Logger) {
	store.SeedActivity(api.Activity{
		ID:              "demo-activity",
		ActivityName:    "Sunday Football",
		Sport:           "football",
		SkillLevel:      "intermediate",
		Description:     "Casual 5-a-side, all welcome",
		CreatorID:       "owner",
		MaxParticipants: 10,
		Status:          api.ActivityAvailable,
	})
	for _, user := range []string{"alice", "bob"} {
		if _, err := store.RequestJoin("demo-activity", user); err != nil {
			logger.Warn("seed join for %s: %v", user, err)
		}
	}
	logger.Info("seeded demo-activity with pending requests from alice and bob")
	logger.Info("authenticate as any user with: Authorization: Bearer <user-id>")
}
