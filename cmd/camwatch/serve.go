package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"camwatch/internal/bootstrap"
	monitoroutadapter "camwatch/internal/modules/monitor/adapter/out"
	monitorout "camwatch/internal/modules/monitor/port/out"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/platform/logging"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor headless and stream progress over websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			logger := logging.New(cfg.Logging, true)
			hub := monitoroutadapter.NewWebsocketSink(logger, monitoroutadapter.WithAllowedOrigins(cfg.Server.AllowedOrigins...))
			app, err := bootstrap.New(cfg, bootstrap.Options{Sinks: []monitorout.Sink{hub}, Logger: logger})
			if err != nil {
				return err
			}
			defer app.Close()

			if out, err := app.MonitorCLI.Resume(cmd.Context()); err != nil {
				app.Logger.Warn().Err(err).Msg("Resume failed")
			} else if out.Resumed {
				app.Logger.Info().Str("job", out.JobID).Msg("Resumed tracked job")
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServeMux(app, hub),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info().Str("addr", addr).Msg("Serving progress")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// Leave the record in place so the next serve resumes it.
			_ = app.MonitorCLI.Stop(shutdownCtx)
			return srv.Shutdown(shutdownCtx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return serve
}

func newServeMux(app *bootstrap.App, hub *monitoroutadapter.WebsocketSink) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", hub.HandleWebSocket)
	mux.HandleFunc("GET /active", func(w http.ResponseWriter, r *http.Request) {
		out, err := app.MonitorCLI.Status(r.Context())
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no tracked job"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("POST /watch/{jobId}", func(w http.ResponseWriter, r *http.Request) {
		out, err := app.MonitorCLI.Watch(r.Context(), r.PathValue("jobId"))
		if errors.Is(err, apperrors.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, out)
	})
	mux.HandleFunc("POST /dismiss", func(w http.ResponseWriter, r *http.Request) {
		if err := app.MonitorCLI.Dismiss(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": hub.Clients()})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
