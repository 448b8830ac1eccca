package analysis

// EPSConsensus is the consensus earnings-per-share estimate for one fiscal
// period.
type EPSConsensus struct {
	Consensus         Money           `json:"consensus"`
	NumberOfEstimates Counter         `json:"number_of_estimates"`
	FiscalPeriod      FinancialPeriod `json:"fiscal_period"`
	// FiscalEndDate is the company's end date for FiscalPeriod.
	FiscalEndDate Date `json:"fiscal_end_date"`
	// NextReportDate is the anticipated next reporting date.
	NextReportDate Date `json:"next_report_date"`
}

// Validate checks that the period ends no later than it is reported and that
// at least one analyst contributed.
func (e EPSConsensus) Validate() error {
	if e.FiscalEndDate.After(e.NextReportDate) {
		return ErrDateOrderInverted
	}
	if e.NumberOfEstimates == 0 {
		return ErrNoEstimates
	}
	return nil
}
