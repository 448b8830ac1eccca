package finnhub

import (
	"context"
	"net/url"
	"time"
)

const dateLayout = "2006-01-02"

// EarningsRelease is one scheduled or past earnings report.
type EarningsRelease struct {
	Symbol      string   `json:"symbol"`
	Date        string   `json:"date"`
	Hour        string   `json:"hour"` // bmo, amc, dmh
	Quarter     int      `json:"quarter"`
	Year        int      `json:"year"`
	EPSActual   *float64 `json:"epsActual"`
	EPSEstimate *float64 `json:"epsEstimate"`
}

type earningsCalendarResponse struct {
	EarningsCalendar []EarningsRelease `json:"earningsCalendar"`
}

// GetEarningsCalendar retrieves earnings releases of symbol between from and
// to, both inclusive.
func (c *FinnhubAPIClient) GetEarningsCalendar(ctx context.Context, symbol string, from, to time.Time, opts ...FinnhubAPIClientOption) ([]EarningsRelease, error) {
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.Format(dateLayout)},
		"to":     {to.Format(dateLayout)},
	}
	var body earningsCalendarResponse
	if err := c.get(ctx, "/calendar/earnings", params, &body, opts...); err != nil {
		return nil, err
	}
	return body.EarningsCalendar, nil
}
