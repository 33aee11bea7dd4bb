package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/api"
	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/metrics"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attribution HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := *cfg
		if servePort != 0 {
			c.Server.Port = servePort
		}
		if err := c.Validate("serve"); err != nil {
			return err
		}

		loader, closeBaseline, err := openBaseline(ctx, c.Baseline)
		if err != nil {
			return err
		}
		defer closeBaseline()

		m := metrics.New()
		handler := api.NewServer(api.Options{
			Engine:      c.Engine,
			Server:      c.Server,
			SelfHistory: c.Baseline.SelfHistory,
			Source:      cachedSource(loader, c.Baseline, m),
			Metrics:     m,
		}).Router()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", c.Server.Port),
			zap.String("baseline_driver", c.Baseline.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// cachedSource serves the reference table from an expiring cache so that
// requests do not hit the baseline store each time.
func cachedSource(l baseline.Loader, bc config.BaselineConfig, m *metrics.Metrics) api.SourceFunc {
	if l == nil {
		return nil
	}
	ttl := time.Duration(bc.CacheTTLMins) * time.Minute
	cached := baseline.NewCachedLoader(l, bc.CacheSize, ttl)
	return func(ctx context.Context) (baseline.Source, error) {
		t, err := cached.Load(ctx, 0)
		m.ObserveBaselineLoad(bc.Driver, err)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
