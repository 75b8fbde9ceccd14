package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bobmcallan/thesis/internal/app"
	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

// buildMux creates the HTTP mux with the report, run, and cache endpoints.
func buildMux(a *app.App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/reports/{ticker}", createReportHandler(a))
	mux.HandleFunc("GET /api/runs/{id}", getRunHandler(a))
	mux.HandleFunc("GET /api/runs/{id}/report.pdf", artifactHandler(a, "pdf"))
	mux.HandleFunc("GET /api/runs/{id}/report.md", artifactHandler(a, "md"))

	mux.HandleFunc("GET /api/cache/stats", cacheStatsHandler(a))
	mux.HandleFunc("DELETE /api/cache", cachePurgeHandler(a))
	mux.HandleFunc("DELETE /api/cache/{ticker}", cachePurgeTickerHandler(a))

	mux.HandleFunc("GET /api/health", healthHandler)
	mux.HandleFunc("GET /api/version", versionHandler)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// createReportHandler accepts a report request and runs the pipeline in
// the background. Responds 202 with the run id to poll.
func createReportHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticker, err := models.ValidateTicker(r.PathValue("ticker"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		force := r.URL.Query().Get("force") == "true"

		run := a.Runs.Create(ticker)
		go func() {
			// Detached from the request: the pipeline enforces its own timeout
			_, doc, err := a.ReportService.GenerateReport(context.Background(), ticker, interfaces.ReportOptions{
				ForceRefresh: force,
				Progress:     a.Runs.Progress(run.ID),
			})
			if err != nil {
				a.Runs.Fail(run.ID, err)
				return
			}
			a.Runs.Complete(run.ID, doc)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"id":     run.ID,
			"ticker": ticker,
			"state":  string(run.State),
		})
	}
}

func getRunHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := a.Runs.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// artifactHandler serves a completed run's markdown or PDF artifact.
func artifactHandler(a *app.App, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := a.Runs.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if run.State != app.RunCompleted || run.Document == nil {
			writeError(w, http.StatusConflict, "run has no artifacts yet")
			return
		}
		switch kind {
		case "pdf":
			w.Header().Set("Content-Type", "application/pdf")
			http.ServeFile(w, r, run.Document.PDFPath)
		case "md":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			http.ServeFile(w, r, run.Document.MarkdownPath)
		}
	}
}

func cacheStatsHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := a.Cache.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func cachePurgeHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := a.Cache.Purge(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func cachePurgeTickerHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticker, err := models.ValidateTicker(r.PathValue("ticker"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		removed, err := a.Cache.PurgeTicker(r.Context(), ticker)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "removed": removed})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
