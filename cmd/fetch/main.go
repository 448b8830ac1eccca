package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"analystprovider/internal/analysis"
	"analystprovider/internal/config"
	"analystprovider/internal/logger"
	"analystprovider/internal/report"
	"analystprovider/internal/source"
)

func main() {
	var symbolsCSV string
	var configPath string
	var sourceKind string
	var fixturePath string
	var timeout int
	var summary bool

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL"), "comma-separated ticker symbols")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.StringVar(&sourceKind, "source", "", "data source: finnhub or fixture (overrides config)")
	flag.StringVar(&fixturePath, "fixture", "", "YAML fixture path (implies -source=fixture)")
	flag.IntVar(&timeout, "timeout", 30, "overall timeout seconds")
	flag.BoolVar(&summary, "summary", false, "print one line per symbol instead of JSON")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}
	if fixturePath != "" {
		cfg.Source = config.SourceFixture
		cfg.Fixture.Path = fixturePath
	}
	if sourceKind != "" {
		cfg.Source = sourceKind
	}
	if err := cfg.Validate(); err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}

	cfg.Log.Format = "console"
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stderr"})
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("logger")
	}

	p, err := source.Build(cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("provider")
	}

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal().Msg("no symbols provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	reports := report.BuildMany(ctx, p, symbols, 2)
	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}

	if summary {
		printSummary(os.Stdout, reports)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			log.Fatal().Err(err).Msg("encode")
		}
	}
	if failed == len(reports) {
		log.Fatal().Int("symbols", len(reports)).Msg("no data received")
	}
}

// printSummary writes one line per report: symbol, average target, current
// scaled rating and the nearest EPS consensus.
func printSummary(w io.Writer, reports []report.Report) {
	for _, r := range reports {
		target, rating, eps := "-", "-", "-"
		if tp := r.TargetPrice.Data; tp != nil {
			target = tp.Value.Average.StringFixed(2)
			if !tp.Valid {
				target += "!"
			}
		}
		for _, rt := range r.Ratings.Data {
			if rt.Current && rt.ScaledAverage != nil {
				rating = fmt.Sprintf("%.2f", *rt.ScaledAverage)
			}
		}
		if len(r.EPS.Data) > 0 {
			e := r.EPS.Data[0]
			eps = fmt.Sprintf("%s %s (%s)", e.Period, e.Consensus.StringFixed(2), e.NextReportDate.Format("2006-01-02"))
		}
		fmt.Fprintf(w, "%-8s target=%s rating=%s eps=%s peers=%d\n", r.Symbol, target, rating, eps, len(r.Peers.Data))
	}
}

func splitCSV(s string) []analysis.Symbol {
	parts := strings.Split(s, ",")
	out := make([]analysis.Symbol, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, analysis.Symbol(p))
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
