// Package fixture serves analyst data from a YAML document. It backs the
// offline mode of the binaries and gives tests a deterministic provider.
//
//	symbols:
//	  AAPL:
//	    peers: [MSFT, GOOGL]
//	    price_target:
//	      timestamp: "2024-05-03T00:00:00Z"
//	      high: "250"
//	      low: "164"
//	      average: "203.95"
//	      analysts: 38
//	    ratings:
//	      - start: "2024-05-01"
//	        end: "2024-06-01"
//	        scale_mark: 1.9
//	        counts: {buy: 13, outperform: 24, hold: 7}
//	    eps:
//	      - period: {year: 2024, quarter: 3}
//	        consensus: "1.50"
//	        estimates: 27
//	        fiscal_end_date: "2024-06-30"
//	        next_report_date: "2024-08-01"
package fixture

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"analystprovider/internal/analysis"
	"analystprovider/internal/provider"
)

const dateLayout = "2006-01-02"

type document struct {
	Symbols map[string]entry `yaml:"symbols"`
}

type entry struct {
	Peers       []string     `yaml:"peers"`
	PriceTarget *priceTarget `yaml:"price_target"`
	Ratings     []ratings    `yaml:"ratings"`
	EPS         []eps        `yaml:"eps"`
}

type priceTarget struct {
	Timestamp string `yaml:"timestamp"`
	High      string `yaml:"high"`
	Low       string `yaml:"low"`
	Average   string `yaml:"average"`
	Analysts  uint32 `yaml:"analysts"`
}

type ratings struct {
	Start     string            `yaml:"start"`
	End       string            `yaml:"end"`
	ScaleMark *float32          `yaml:"scale_mark"`
	Counts    map[string]uint32 `yaml:"counts"`
}

type eps struct {
	Period         analysis.FinancialPeriod `yaml:"period"`
	Consensus      string                   `yaml:"consensus"`
	Estimates      uint32                   `yaml:"estimates"`
	FiscalEndDate  string                   `yaml:"fiscal_end_date"`
	NextReportDate string                   `yaml:"next_report_date"`
}

type record struct {
	peers   analysis.Symbols
	target  *analysis.Snapshot[analysis.PriceTarget]
	ratings []analysis.Bounded[analysis.Ratings]
	eps     []analysis.EPSConsensus
}

// Provider answers every call from the parsed document. Symbols are matched
// case-insensitively. It is read-only after Load and safe for concurrent use;
// every call returns a fresh copy.
type Provider struct {
	name    string
	records map[analysis.Symbol]record
}

// LoadFile parses the YAML document at path.
func LoadFile(name, path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Load(name, f)
}

// Load parses a YAML document. Everything is converted up front, so a bad
// value fails here rather than on a later call.
func Load(name string, r io.Reader) (*Provider, error) {
	if name == "" {
		name = "Fixture"
	}
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	p := &Provider{name: name, records: make(map[analysis.Symbol]record, len(doc.Symbols))}
	for sym, e := range doc.Symbols {
		rec, err := e.convert()
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", sym, err)
		}
		p.records[key(analysis.Symbol(sym))] = rec
	}
	return p, nil
}

func (p *Provider) Name() string { return p.name }

// Symbols lists every symbol the document covers.
func (p *Provider) Symbols() analysis.Symbols {
	out := make(analysis.Symbols, len(p.records))
	for s := range p.records {
		out.Add(s)
	}
	return out
}

func (p *Provider) Peers(_ context.Context, symbol analysis.Symbol) (analysis.Symbols, error) {
	rec, err := p.lookup(provider.OpPeers, symbol)
	if err != nil {
		return nil, err
	}
	return rec.peers.Clone(), nil
}

func (p *Provider) TargetPrice(_ context.Context, symbol analysis.Symbol) (*analysis.Snapshot[analysis.PriceTarget], error) {
	rec, err := p.lookup(provider.OpTargetPrice, symbol)
	if err != nil {
		return nil, err
	}
	return analysis.ClonePriceTarget(rec.target), nil
}

func (p *Provider) ConsensusRating(_ context.Context, symbol analysis.Symbol) ([]analysis.Bounded[analysis.Ratings], error) {
	rec, err := p.lookup(provider.OpConsensusRating, symbol)
	if err != nil {
		return nil, err
	}
	return analysis.CloneRatingsHistory(rec.ratings), nil
}

func (p *Provider) ConsensusEPS(_ context.Context, symbol analysis.Symbol) ([]analysis.EPSConsensus, error) {
	rec, err := p.lookup(provider.OpConsensusEPS, symbol)
	if err != nil {
		return nil, err
	}
	return analysis.CloneEPS(rec.eps), nil
}

func (p *Provider) lookup(op string, symbol analysis.Symbol) (record, error) {
	rec, ok := p.records[key(symbol)]
	if !ok {
		return record{}, provider.NewRequestError(p.name, op, symbol, fmt.Errorf("%w: no fixture for symbol", provider.ErrNotFound))
	}
	return rec, nil
}

func key(s analysis.Symbol) analysis.Symbol {
	return analysis.Symbol(strings.ToUpper(strings.TrimSpace(string(s))))
}

func (e entry) convert() (record, error) {
	var rec record

	if len(e.Peers) > 0 {
		rec.peers = make(analysis.Symbols, len(e.Peers))
		for _, s := range e.Peers {
			rec.peers.Add(analysis.Symbol(s))
		}
	}

	if pt := e.PriceTarget; pt != nil {
		snap := &analysis.Snapshot[analysis.PriceTarget]{}
		var err error
		if pt.Timestamp != "" {
			if snap.Timestamp, err = time.Parse(time.RFC3339, pt.Timestamp); err != nil {
				return rec, fmt.Errorf("price_target.timestamp: %w", err)
			}
		}
		if snap.Value.High, err = parseMoney("price_target.high", pt.High); err != nil {
			return rec, err
		}
		if snap.Value.Low, err = parseMoney("price_target.low", pt.Low); err != nil {
			return rec, err
		}
		if snap.Value.Average, err = parseMoney("price_target.average", pt.Average); err != nil {
			return rec, err
		}
		snap.Value.NumberOfAnalysts = pt.Analysts
		rec.target = snap
	}

	for i, r := range e.Ratings {
		b := analysis.Bounded[analysis.Ratings]{Value: analysis.Ratings{
			Ratings:   make(map[analysis.RatingType]analysis.Counter, len(r.Counts)),
			ScaleMark: r.ScaleMark,
		}}
		var err error
		if b.Start, err = parseDate(fmt.Sprintf("ratings[%d].start", i), r.Start); err != nil {
			return rec, err
		}
		if b.End, err = parseDate(fmt.Sprintf("ratings[%d].end", i), r.End); err != nil {
			return rec, err
		}
		for name, n := range r.Counts {
			rt, err := analysis.ParseRatingType(name)
			if err != nil {
				return rec, fmt.Errorf("ratings[%d].counts: %w", i, err)
			}
			b.Value.Ratings[rt] = n
		}
		rec.ratings = append(rec.ratings, b)
	}

	for i, x := range e.EPS {
		c := analysis.EPSConsensus{FiscalPeriod: x.Period, NumberOfEstimates: x.Estimates}
		var err error
		if c.Consensus, err = parseMoney(fmt.Sprintf("eps[%d].consensus", i), x.Consensus); err != nil {
			return rec, err
		}
		if c.FiscalEndDate, err = parseDate(fmt.Sprintf("eps[%d].fiscal_end_date", i), x.FiscalEndDate); err != nil {
			return rec, err
		}
		if c.NextReportDate, err = parseDate(fmt.Sprintf("eps[%d].next_report_date", i), x.NextReportDate); err != nil {
			return rec, err
		}
		rec.eps = append(rec.eps, c)
	}
	return rec, nil
}

func parseMoney(field, s string) (analysis.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseDate(field, s string) (analysis.Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}
