// Package report writes solver run results to disk as JSON and CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contactkeval/vol-solver/internal/engine"
)

func WriteJSON(res *engine.Result, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "vols.json"), b, 0644)
}

func WriteCSV(rows []engine.Row, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "vols.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"symbol", "underlying", "type", "strike", "expiry", "target", "years", "iv", "iterations", "converged_by", "error"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Symbol,
			r.Quote.Underlying,
			r.Quote.OptionType,
			fmt.Sprintf("%.2f", r.Quote.Strike),
			r.Quote.Expiry.Format("2006-01-02"),
			fmt.Sprintf("%.4f", r.Target),
			fmt.Sprintf("%.6f", r.Years),
			fmt.Sprintf("%.6f", r.IV),
			fmt.Sprintf("%d", r.Iterations),
			r.ConvergedBy,
			r.Error,
		}
		_ = w.Write(row)
	}
	return nil
}
