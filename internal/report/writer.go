// Package report writes run artifacts to disk: the result JSON, the
// trade log as JSONL, and a human-readable markdown summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cryptovet/internal/assess"
	"github.com/sawpanic/cryptovet/internal/backtest"
)

// Writer owns one run's artifact directory: <base>/<date>/<run-id>/.
// Each run gets a fresh UUID so repeated runs never clobber each other.
type Writer struct {
	dir   string
	runID string
}

// NewWriter allocates a run ID and derives the output directory. Nothing
// touches the disk until the first write.
func NewWriter(baseDir string) *Writer {
	runID := uuid.NewString()
	return &Writer{
		dir:   filepath.Join(baseDir, time.Now().Format("2006-01-02"), runID),
		runID: runID,
	}
}

// RunID returns the run's unique identifier.
func (w *Writer) RunID() string { return w.runID }

// Dir returns the run's artifact directory.
func (w *Writer) Dir() string { return w.dir }

// WriteResult writes the full result and its assessment as one pretty
// JSON document, plus the trade log as JSONL for line-oriented tooling.
func (w *Writer) WriteResult(res *backtest.Result, a assess.Assessment) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	doc := struct {
		RunID      string            `json:"run_id"`
		Result     *backtest.Result  `json:"result"`
		Assessment assess.Assessment `json:"assessment"`
	}{w.runID, res, a}

	if err := w.writeJSON("result.json", doc); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(w.dir, "trades.jsonl"))
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, t := range res.Trades {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("write trade: %w", err)
		}
	}

	log.Info().Str("run_id", w.runID).Str("dir", w.dir).Msg("Wrote run artifacts")
	return nil
}

// WriteMultiScenario writes the merged four-regime validation outcome.
func (w *Writer) WriteMultiScenario(ms *assess.MultiScenario) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	doc := struct {
		RunID string `json:"run_id"`
		*assess.MultiScenario
	}{w.runID, ms}

	return w.writeJSON("validation.json", doc)
}

// WriteReport renders the markdown summary next to the JSON artifacts.
func (w *Writer) WriteReport(res *backtest.Result, a assess.Assessment) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	path := filepath.Join(w.dir, "report.md")
	if err := os.WriteFile(path, []byte(markdownReport(w.runID, res, a)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, name), payload, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func markdownReport(runID string, res *backtest.Result, a assess.Assessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Backtest Report: %s\n\n", res.Symbol)
	fmt.Fprintf(&b, "Run `%s` at %s\n\n", runID, time.Now().Format(time.RFC3339))

	b.WriteString("## Performance\n\n")
	fmt.Fprintf(&b, "- Initial Capital: $%.2f\n", res.InitialCapital)
	fmt.Fprintf(&b, "- Final Balance: $%.2f\n", res.FinalBalance)
	fmt.Fprintf(&b, "- Total Return: %+.2f%%\n", res.TotalReturn)
	fmt.Fprintf(&b, "- Annualized Return: %+.2f%%\n", res.AnnualizedReturn)
	fmt.Fprintf(&b, "- Max Drawdown: %.2f%%\n", res.MaxDrawdown)
	fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", res.SharpeRatio)
	fmt.Fprintf(&b, "- Sortino Ratio: %.2f\n\n", res.SortinoRatio)

	b.WriteString("## Trades\n\n")
	fmt.Fprintf(&b, "- Total: %d (%d wins / %d losses)\n", res.TotalTrades, res.WinningTrades, res.LosingTrades)
	fmt.Fprintf(&b, "- Win Rate: %.1f%%\n", res.WinRate)
	fmt.Fprintf(&b, "- Profit Factor: %.2f\n", res.ProfitFactor)
	fmt.Fprintf(&b, "- Avg Win / Avg Loss: %+.2f%% / %+.2f%%\n", res.AvgWin, res.AvgLoss)
	fmt.Fprintf(&b, "- Max Consecutive Wins / Losses: %d / %d\n", res.MaxConsecutiveWins, res.MaxConsecutiveLosses)
	fmt.Fprintf(&b, "- VaR(95): $%.2f, CVaR(95): $%.2f\n", res.VaR95, res.CVaR95)
	fmt.Fprintf(&b, "- Market Exposure: %.1f%%\n\n", res.ExposureTime)

	fmt.Fprintf(&b, "## Assessment (%d/%d passed)\n\n", a.PassedCount, a.TotalCount)
	for _, c := range a.Criteria {
		status := "FAIL"
		if c.Passed {
			status = "PASS"
		}
		fmt.Fprintf(&b, "- [%s] %s (value %.2f, threshold %.2f)\n", status, c.Description, c.Value, c.Threshold)
	}
	fmt.Fprintf(&b, "\n**Recommendation: %s** (confidence %s)\n\n%s\n", a.Recommendation, a.Confidence, a.Message)

	return b.String()
}
