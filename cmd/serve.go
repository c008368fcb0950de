package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hertta/internal/pipeline"
	"github.com/sells-group/hertta/internal/store"
)

var servePort int

// jobSemSize limits concurrent in-flight optimization jobs.
const jobSemSize = 8

// buildMux constructs the thin HTTP surface from spec §6.1: a stand-in for
// the GraphQL front end, accepting a job asynchronously behind a bounded
// semaphore and returning its id immediately.
func buildMux(p *pipeline.Pipeline, st *store.Store) *http.ServeMux {
	mux := http.NewServeMux()
	sem := make(chan struct{}, jobSemSize)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		var body jobRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		select {
		case sem <- struct{}{}:
		default:
			http.Error(w, `{"error":"too many concurrent jobs"}`, http.StatusServiceUnavailable)
			return
		}

		jobID := st.CreateJob()

		go func() {
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("job panicked", zap.Int64("job_id", jobID), zap.Any("panic", r), zap.Stack("stack"))
				}
			}()
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			p.Run(jobCtx, jobID, body.toRequest())
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]int64{"job_id": jobID})
	})

	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid job id"}`, http.StatusBadRequest)
			return
		}
		job, err := st.Get(id)
		if err != nil {
			http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jobStatusView(job))
	})

	return mux
}

// jobStatusView renders a store.Job as the JobStatus envelope from
// spec §6.1: Queued/InProgress/Failed{message}/Finished{outcome}.
func jobStatusView(job store.Job) map[string]any {
	view := map[string]any{"state": job.State.String()}
	switch job.State {
	case store.JobFailed:
		view["message"] = job.Message
	case store.JobFinished:
		view["outcome"] = job.Outcome
	}
	return view
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job surface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := settings.Validate("serve"); err != nil {
			return err
		}

		st := store.New()
		p := pipeline.New(settings, st)

		port := servePort
		if port == 0 {
			port = settings.Server.Port
		}

		return startServer(ctx, buildMux(p, st), port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

// startServer creates and runs the HTTP server with graceful shutdown.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}
