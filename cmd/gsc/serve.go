package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/httpx"
	"github.com/AngelCh415/GSC_GO/internal/ingest"
	"github.com/AngelCh415/GSC_GO/internal/observability"
	"github.com/AngelCh415/GSC_GO/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := zap.L()

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		cc, err := cfg.Report.Category()
		if err != nil {
			return err
		}
		eng, err := report.NewEngine(cc, report.WithLogger(logger))
		if err != nil {
			return err
		}

		m := observability.New()
		var etl *ingest.ETL
		if cfg.API.Site != "" {
			if etl, err = newETL(cfg.API, st, m); err != nil {
				return err
			}
		} else {
			logger.Info("no api site configured, ingest endpoint disabled")
		}

		h := httpx.NewRouter(httpx.Deps{
			Log:            logger,
			ETL:            etl,
			Reports:        report.NewService(st, eng, m, logger),
			Metrics:        m,
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			DefaultTopN:    cfg.Report.TopN,
		})

		srv := &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           h,
			ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.Int("port", port), zap.String("client", cc.Client))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
