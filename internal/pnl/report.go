// internal/pnl/report.go
package pnl

// RunningTotals accumulates the USD legs of one aggregation run. Values only
// grow as transactions are processed; nothing resets mid-run.
type RunningTotals struct {
	SpentUSD float64
	SoldUSD  float64
	FeesUSD  float64
}

// Report is the terminal result of one ComputePnL invocation.
//
// The SOL-denominated fields are the USD fields divided by the SOL spot
// price; they are only meaningful when SolDenominated is true. ROI is
// profit over spend as a percentage and is undefined when no qualifying
// spend was observed (airdropped positions), signalled by ROIDefined.
type Report struct {
	Symbol string

	SpentUSD   float64
	SoldUSD    float64
	FeesUSD    float64
	HoldingUSD float64
	ProfitUSD  float64

	SpentSOL       float64
	SoldSOL        float64
	FeesSOL        float64
	HoldingSOL     float64
	ProfitSOL      float64
	SolDenominated bool

	ROI        float64
	ROIDefined bool
}
