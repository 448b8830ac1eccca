package finnhub

import (
	"context"
	"net/url"
)

// PriceTarget is the latest analyst price target consensus.
type PriceTarget struct {
	Symbol         string  `json:"symbol"`
	LastUpdated    string  `json:"lastUpdated"` // "2006-01-02 15:04:05"
	TargetHigh     float64 `json:"targetHigh"`
	TargetLow      float64 `json:"targetLow"`
	TargetMean     float64 `json:"targetMean"`
	TargetMedian   float64 `json:"targetMedian"`
	NumberAnalysts int     `json:"numberAnalysts"`
}

// RecommendationTrend is the count of analyst recommendations for one month.
type RecommendationTrend struct {
	Symbol     string `json:"symbol"`
	Period     string `json:"period"` // first day of the month, "2006-01-02"
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// EPSEstimate is the EPS consensus for one fiscal period.
type EPSEstimate struct {
	EPSAvg         float64 `json:"epsAvg"`
	EPSHigh        float64 `json:"epsHigh"`
	EPSLow         float64 `json:"epsLow"`
	NumberAnalysts int     `json:"numberAnalysts"`
	Period         string  `json:"period"` // fiscal period end, "2006-01-02"
	Quarter        int     `json:"quarter"`
	Year           int     `json:"year"`
}

// EPSEstimates is the /stock/eps-estimate response.
type EPSEstimates struct {
	Symbol string        `json:"symbol"`
	Freq   string        `json:"freq"`
	Data   []EPSEstimate `json:"data"`
}

// GetPeers retrieves the peer symbols of symbol. The list usually includes
// symbol itself.
func (c *FinnhubAPIClient) GetPeers(ctx context.Context, symbol string, opts ...FinnhubAPIClientOption) ([]string, error) {
	var peers []string
	if err := c.get(ctx, "/stock/peers", url.Values{"symbol": {symbol}}, &peers, opts...); err != nil {
		return nil, err
	}
	return peers, nil
}

// GetPriceTarget retrieves the latest price target consensus. Finnhub answers
// with an empty object when it has no coverage.
func (c *FinnhubAPIClient) GetPriceTarget(ctx context.Context, symbol string, opts ...FinnhubAPIClientOption) (*PriceTarget, error) {
	var target PriceTarget
	if err := c.get(ctx, "/stock/price-target", url.Values{"symbol": {symbol}}, &target, opts...); err != nil {
		return nil, err
	}
	return &target, nil
}

// GetRecommendationTrends retrieves monthly recommendation counts, newest first.
func (c *FinnhubAPIClient) GetRecommendationTrends(ctx context.Context, symbol string, opts ...FinnhubAPIClientOption) ([]RecommendationTrend, error) {
	var trends []RecommendationTrend
	if err := c.get(ctx, "/stock/recommendation", url.Values{"symbol": {symbol}}, &trends, opts...); err != nil {
		return nil, err
	}
	return trends, nil
}

// GetEPSEstimates retrieves EPS estimates. freq is "quarterly" or "annual".
func (c *FinnhubAPIClient) GetEPSEstimates(ctx context.Context, symbol, freq string, opts ...FinnhubAPIClientOption) (*EPSEstimates, error) {
	params := url.Values{"symbol": {symbol}}
	if freq != "" {
		params.Set("freq", freq)
	}
	var estimates EPSEstimates
	if err := c.get(ctx, "/stock/eps-estimate", params, &estimates, opts...); err != nil {
		return nil, err
	}
	return &estimates, nil
}
