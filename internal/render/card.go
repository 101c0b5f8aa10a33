// internal/render/card.go
package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"github.com/degenlabs/pnl-bot/internal/pnl"
)

const (
	cardWidth  = 900
	cardHeight = 500
)

// Renderer draws PnL report cards as PNG images.
type Renderer struct {
	fontPath string
	logger   *zap.Logger
}

// NewRenderer creates a renderer. fontPath may be empty; the card then
// falls back to the built-in bitmap face.
func NewRenderer(fontPath string, logger *zap.Logger) *Renderer {
	return &Renderer{
		fontPath: fontPath,
		logger:   logger.With(zap.String("component", "render")),
	}
}

// setFace loads the configured TTF at the given size, falling back to the
// fixed 7x13 face when the font file is missing or unreadable.
func (r *Renderer) setFace(dc *gg.Context, size float64) {
	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, size); err == nil {
			return
		} else {
			r.logger.Warn("failed to load font, using builtin face",
				zap.String("font_path", r.fontPath), zap.Error(err))
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// Card renders the report as a PNG. Amounts are formatted to two decimals
// here and nowhere earlier; the report keeps full precision.
func (r *Renderer) Card(report *pnl.Report) ([]byte, error) {
	dc := gg.NewContext(cardWidth, cardHeight)

	// Background.
	dc.SetRGB(0.07, 0.08, 0.12)
	dc.Clear()

	// Header strip.
	dc.SetRGB(0.11, 0.12, 0.18)
	dc.DrawRectangle(0, 0, cardWidth, 80)
	dc.Fill()

	symbol := report.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}
	r.setFace(dc, 36)
	dc.SetRGB(0.95, 0.95, 0.95)
	dc.DrawStringAnchored(fmt.Sprintf("%s PnL", symbol), 40, 40, 0, 0.5)

	r.setFace(dc, 22)
	labels := []struct {
		name  string
		value string
	}{
		{"BOUGHT", r.amount(report.SpentSOL, report.SpentUSD, report.SolDenominated)},
		{"SOLD", r.amount(report.SoldSOL, report.SoldUSD, report.SolDenominated)},
		{"HOLDING", r.amount(report.HoldingSOL, report.HoldingUSD, report.SolDenominated)},
		{"FEES", r.amount(report.FeesSOL, report.FeesUSD, report.SolDenominated)},
	}
	for i, row := range labels {
		y := 130.0 + float64(i)*60
		dc.SetRGB(0.55, 0.58, 0.65)
		dc.DrawStringAnchored(row.name, 40, y, 0, 0.5)
		dc.SetRGB(0.9, 0.9, 0.9)
		dc.DrawStringAnchored(row.value, 220, y, 0, 0.5)
	}

	// ROI dominates the right half of the card.
	roiText := "N/A"
	if report.ROIDefined {
		roiText = fmt.Sprintf("%+.2f%%", report.ROI)
	}
	r.setFace(dc, 64)
	if report.ROIDefined && report.ROI >= 0 {
		dc.SetRGB(0.30, 0.82, 0.45)
	} else if report.ROIDefined {
		dc.SetRGB(0.88, 0.30, 0.30)
	} else {
		dc.SetRGB(0.55, 0.58, 0.65)
	}
	dc.DrawStringAnchored(roiText, 660, 200, 0.5, 0.5)

	r.setFace(dc, 20)
	dc.SetRGB(0.55, 0.58, 0.65)
	dc.DrawStringAnchored("ROI", 660, 150, 0.5, 0.5)

	// Profit line across the bottom.
	r.setFace(dc, 28)
	if report.ProfitUSD >= 0 {
		dc.SetRGB(0.30, 0.82, 0.45)
	} else {
		dc.SetRGB(0.88, 0.30, 0.30)
	}
	profit := fmt.Sprintf("PROFIT  $%.2f", report.ProfitUSD)
	if report.SolDenominated {
		profit = fmt.Sprintf("PROFIT  %.2f SOL  ($%.2f)", report.ProfitSOL, report.ProfitUSD)
	}
	dc.DrawStringAnchored(profit, cardWidth/2, 440, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode report card: %w", err)
	}
	return buf.Bytes(), nil
}

// amount prefers the SOL denomination and annotates it with the USD figure;
// when the SOL spot was unavailable only the USD figure is shown.
func (r *Renderer) amount(sol, usd float64, solDenominated bool) string {
	if solDenominated {
		return fmt.Sprintf("%.2f SOL  ($%.2f)", sol, usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
