package finnhubadapter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
	"analystprovider/internal/provider/finnhub"
)

const (
	dateLayout        = "2006-01-02"
	lastUpdatedLayout = "2006-01-02 15:04:05"
)

type Config struct {
	Name string // display name, default: Finnhub
	// EPSFrequency is passed to /stock/eps-estimate: quarterly or annual.
	EPSFrequency string
	// ReportHorizonDays is how far past the last fiscal end date the
	// earnings calendar is searched for report dates. Default 120.
	ReportHorizonDays int
}

// Adapter exposes the Finnhub REST API as a provider.Provider.
type Adapter struct {
	cfg    Config
	client *finnhub.FinnhubAPIClient
}

func New(cfg Config, client *finnhub.FinnhubAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Finnhub"
	}
	if cfg.EPSFrequency == "" {
		cfg.EPSFrequency = "quarterly"
	}
	if cfg.ReportHorizonDays <= 0 {
		cfg.ReportHorizonDays = 120
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Peers returns Finnhub's peer list without the queried symbol itself.
func (a *Adapter) Peers(ctx context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	list, err := a.client.GetPeers(ctx, string(symbol))
	if err != nil {
		return nil, a.fail(provider.OpPeers, symbol, classify(err))
	}
	peers := make(analysis.Symbols, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, string(symbol)) {
			continue
		}
		peers.Add(analysis.Symbol(s))
	}
	if peers.Len() == 0 {
		return nil, nil
	}
	return peers, nil
}

func (a *Adapter) TargetPrice(ctx context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	pt, err := a.client.GetPriceTarget(ctx, string(symbol))
	if err != nil {
		return nil, a.fail(provider.OpTargetPrice, symbol, classify(err))
	}
	// No coverage comes back as {} or as all-zero targets.
	if pt.TargetHigh == 0 && pt.TargetLow == 0 && pt.TargetMean == 0 {
		return nil, nil
	}

	var ts time.Time
	if pt.LastUpdated != "" {
		ts, err = parseTime(pt.LastUpdated, lastUpdatedLayout, dateLayout)
		if err != nil {
			return nil, a.fail(provider.OpTargetPrice, symbol, malformed("lastUpdated", err))
		}
	}
	return &analysis.Snapshot[analysis.PriceTarget]{
		Value: analysis.PriceTarget{
			High:             decimal.NewFromFloat(pt.TargetHigh),
			Low:              decimal.NewFromFloat(pt.TargetLow),
			Average:          decimal.NewFromFloat(pt.TargetMean),
			NumberOfAnalysts: counter(pt.NumberAnalysts),
		},
		Timestamp: ts,
	}, nil
}

// ConsensusRating maps each monthly trend to ratings valid for that month.
// Finnhub's five buckets map onto the categories from most to least bullish.
func (a *Adapter) ConsensusRating(ctx context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	trends, err := a.client.GetRecommendationTrends(ctx, string(symbol))
	if err != nil {
		return nil, a.fail(provider.OpConsensusRating, symbol, classify(err))
	}
	if len(trends) == 0 {
		return nil, nil
	}

	out := make([]analysis.Bounded[analysis.Ratings], 0, len(trends))
	for _, tr := range trends {
		start, err := parseTime(tr.Period, dateLayout)
		if err != nil {
			return nil, a.fail(provider.OpConsensusRating, symbol, malformed("period", err))
		}
		out = append(out, analysis.Bounded[analysis.Ratings]{
			Value: analysis.Ratings{Ratings: map[analysis.RatingType]analysis.Counter{
				analysis.Buy:          counter(tr.StrongBuy),
				analysis.Outperform:   counter(tr.Buy),
				analysis.Hold:         counter(tr.Hold),
				analysis.Underperform: counter(tr.Sell),
				analysis.Sell:         counter(tr.StrongSell),
			}},
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	return out, nil
}

// ConsensusEPS joins EPS estimates with the earnings calendar to find each
// period's report date. Periods with no known report date are left out.
func (a *Adapter) ConsensusEPS(ctx context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	est, err := a.client.GetEPSEstimates(ctx, string(symbol), a.cfg.EPSFrequency)
	if err != nil {
		return nil, a.fail(provider.OpConsensusEPS, symbol, classify(err))
	}
	if len(est.Data) == 0 {
		return nil, nil
	}

	ends := make([]time.Time, len(est.Data))
	var first, last time.Time
	for i, e := range est.Data {
		end, err := parseTime(e.Period, dateLayout)
		if err != nil {
			return nil, a.fail(provider.OpConsensusEPS, symbol, malformed("period", err))
		}
		ends[i] = end
		if first.IsZero() || end.Before(first) {
			first = end
		}
		if end.After(last) {
			last = end
		}
	}

	releases, err := a.client.GetEarningsCalendar(ctx, string(symbol), first, last.AddDate(0, 0, a.cfg.ReportHorizonDays))
	if err != nil {
		return nil, a.fail(provider.OpConsensusEPS, symbol, classify(err))
	}
	reports, err := parseReleases(releases)
	if err != nil {
		return nil, a.fail(provider.OpConsensusEPS, symbol, err)
	}

	annual := a.cfg.EPSFrequency == "annual"
	out := make([]analysis.EPSConsensus, 0, len(est.Data))
	for i, e := range est.Data {
		period := analysis.FinancialPeriod{Year: e.Year, Quarter: e.Quarter}
		if annual {
			period.Quarter = 0
		}
		reportDate, ok := reports.dateFor(period, ends[i])
		if !ok {
			continue
		}
		out = append(out, analysis.EPSConsensus{
			Consensus:         decimal.NewFromFloat(e.EPSAvg),
			NumberOfEstimates: counter(e.NumberAnalysts),
			FiscalPeriod:      period,
			FiscalEndDate:     ends[i],
			NextReportDate:    reportDate,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

type release struct {
	period analysis.FinancialPeriod
	date   time.Time
}

type releases []release

func parseReleases(in []finnhub.EarningsRelease) (releases, error) {
	out := make(releases, 0, len(in))
	for _, r := range in {
		d, err := parseTime(r.Date, dateLayout)
		if err != nil {
			return nil, malformed("earnings date", err)
		}
		out = append(out, release{period: analysis.FinancialPeriod{Year: r.Year, Quarter: r.Quarter}, date: d})
	}
	return out, nil
}

// dateFor prefers the release tagged with the same fiscal quarter, then the
// earliest release on or after the fiscal end date.
func (rs releases) dateFor(p analysis.FinancialPeriod, fiscalEnd time.Time) (time.Time, bool) {
	if !p.IsYear() {
		for _, r := range rs {
			if r.period == p {
				return r.date, true
			}
		}
	}
	var best time.Time
	for _, r := range rs {
		if r.date.Before(fiscalEnd) {
			continue
		}
		if best.IsZero() || r.date.Before(best) {
			best = r.date
		}
	}
	return best, !best.IsZero()
}

func (a *Adapter) fail(op string, symbol analysis.Symbol, err error) error {
	return provider.NewRequestError(a.cfg.Name, op, symbol, err)
}

// classify tags a client error with its provider failure class. Context
// errors are left untagged.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, finnhub.ErrUnauthorized):
		return fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)
	case errors.Is(err, finnhub.ErrNotFound):
		return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	case errors.Is(err, finnhub.ErrRateLimited):
		return fmt.Errorf("%w: %w", provider.ErrRateLimited, err)
	case errors.Is(err, finnhub.ErrDecoding):
		return fmt.Errorf("%w: %w", provider.ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
}

func malformed(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", provider.ErrMalformed, field, err)
}

func parseTime(s string, layouts ...string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// counter clamps n into the Counter range.
func counter(n int) analysis.Counter {
	switch {
	case n < 0:
		return 0
	case uint64(n) > math.MaxUint32:
		return math.MaxUint32
	}
	return analysis.Counter(n)
}
