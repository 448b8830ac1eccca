package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"analystprovider/internal/analysis"
	"analystprovider/internal/config"
	"analystprovider/internal/logger"
	"analystprovider/internal/provider"
	"analystprovider/internal/provider/metrics"
	"analystprovider/internal/report"
	"analystprovider/internal/source"
)

const (
	maxSymbols     = 100
	maxConcurrency = 4
)

type reportsResponse struct {
	Reports []report.Report `json:"reports"`
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("logger")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := source.Build(cfg, log, metrics.New(reg))
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Source).Msg("provider")
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/api/analysis", withCORS(newGzipper().wrap(analysisHandler(p, timeout))))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withRequestLog(log, recoverPanic(limitBody(maxRequestBody, mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("provider", p.Name()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}

func analysisHandler(p provider.Provider, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleGetAnalysis(w, r, p, timeout)
		case http.MethodPost:
			handlePostAnalysis(w, r, p, timeout)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func handleGetAnalysis(w http.ResponseWriter, r *http.Request, p provider.Provider, timeout time.Duration) {
	sym := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if sym == "" {
		writeError(w, http.StatusBadRequest, "missing symbol query param")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	rep := report.Build(ctx, p, analysis.Symbol(strings.ToUpper(sym)))
	status := http.StatusOK
	if rep.Failed() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, rep)
}

type postBody struct {
	Symbols []string `json:"symbols"`
}

func handlePostAnalysis(w http.ResponseWriter, r *http.Request, p provider.Provider, timeout time.Duration) {
	var b postBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	symbols := normalize(b.Symbols)
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols cannot be empty")
		return
	}
	if len(symbols) > maxSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols (max 100)")
		return
	}
	writeAnalysis(w, r.Context(), p, symbols, timeout)
}

// writeAnalysis answers 502 only when every section of every report failed.
func writeAnalysis(w http.ResponseWriter, rctx context.Context, p provider.Provider, symbols []analysis.Symbol, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(rctx, timeout)
	defer cancel()

	reports := report.BuildMany(ctx, p, symbols, maxConcurrency)
	status := http.StatusBadGateway
	for _, rep := range reports {
		if !rep.Failed() {
			status = http.StatusOK
			break
		}
	}
	writeJSON(w, status, reportsResponse{Reports: reports})
}

// normalize upper-cases, trims and de-duplicates symbols, keeping order.
func normalize(in []string) []analysis.Symbol {
	seen := make(map[string]struct{}, len(in))
	out := make([]analysis.Symbol, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, analysis.Symbol(s))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
