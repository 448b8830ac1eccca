package analysis_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"analystprovider/internal/analysis"
)

func TestEPSConsensus_Validate(t *testing.T) {
	t.Parallel()

	q1 := analysis.FinancialPeriod{Year: 2024, Quarter: 1}

	tests := []struct {
		name    string
		eps     analysis.EPSConsensus
		wantErr error
	}{
		{
			name: "valid",
			eps: analysis.EPSConsensus{
				Consensus: money("1.52"), NumberOfEstimates: 10, FiscalPeriod: q1,
				FiscalEndDate:  analysis.NewDate(2024, time.March, 31),
				NextReportDate: analysis.NewDate(2024, time.April, 15),
			},
		},
		{
			name: "reported on the fiscal end date",
			eps: analysis.EPSConsensus{
				NumberOfEstimates: 1, FiscalPeriod: q1,
				FiscalEndDate:  analysis.NewDate(2024, time.March, 31),
				NextReportDate: analysis.NewDate(2024, time.March, 31),
			},
		},
		{
			name: "inverted dates",
			eps: analysis.EPSConsensus{
				NumberOfEstimates: 10, FiscalPeriod: q1,
				FiscalEndDate:  analysis.NewDate(2024, time.April, 15),
				NextReportDate: analysis.NewDate(2024, time.March, 31),
			},
			wantErr: analysis.ErrDateOrderInverted,
		},
		{
			name: "inverted dates win over no estimates",
			eps: analysis.EPSConsensus{
				FiscalPeriod:   q1,
				FiscalEndDate:  analysis.NewDate(2024, time.April, 15),
				NextReportDate: analysis.NewDate(2024, time.March, 31),
			},
			wantErr: analysis.ErrDateOrderInverted,
		},
		{
			name: "no estimates",
			eps: analysis.EPSConsensus{
				FiscalPeriod:   q1,
				FiscalEndDate:  analysis.NewDate(2024, time.March, 31),
				NextReportDate: analysis.NewDate(2024, time.April, 15),
			},
			wantErr: analysis.ErrNoEstimates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.eps.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, err, tt.eps.Validate())
		})
	}
}

func TestFinancialPeriod_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Q3 2024", analysis.FinancialPeriod{Year: 2024, Quarter: 3}.String())
	require.Equal(t, "FY2023", analysis.FinancialPeriod{Year: 2023}.String())
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	s := analysis.NewSymbols("MSFT", "AAPL", "MSFT")
	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains("AAPL"))
	require.False(t, s.Contains("GOOGL"))
	require.Equal(t, []analysis.Symbol{"AAPL", "MSFT"}, s.Sorted())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `["AAPL","MSFT"]`, string(b))

	var back analysis.Symbols
	require.NoError(t, json.Unmarshal([]byte(`["IBM","IBM","ORCL"]`), &back))
	require.Equal(t, analysis.NewSymbols("IBM", "ORCL"), back)
}

func TestBounded_Contains(t *testing.T) {
	t.Parallel()

	b := analysis.Bounded[analysis.Ratings]{
		Start: analysis.NewDate(2024, time.March, 1),
		End:   analysis.NewDate(2024, time.April, 1),
	}
	require.True(t, b.Contains(analysis.NewDate(2024, time.March, 1)))
	require.True(t, b.Contains(analysis.NewDate(2024, time.March, 31)))
	require.False(t, b.Contains(analysis.NewDate(2024, time.April, 1)))
	require.False(t, b.Contains(analysis.NewDate(2024, time.February, 29)))
}
