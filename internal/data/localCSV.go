package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/vol-solver/internal/logger"
)

// csvDataProvider implements Data Provider from a local quote file.
//
// Expected columns (header row required):
//
//	underlying,option_type,strike,expiry,bid,ask,last,spot
//
// expiry is YYYY-MM-DD; bid/ask/last may be empty. The spot column repeats
// the underlying price on every row, as chain exports commonly do.
type csvDataProvider struct {
	path      string
	secondary Provider
}

// NewCSVDataProvider convenience constructor.
func NewCSVDataProvider(path string, secondary Provider) Provider {
	return &csvDataProvider{path: path, secondary: secondary}
}

func (csvDataProv *csvDataProvider) Secondary() Provider {
	return csvDataProv.secondary
}

func (csvDataProv *csvDataProvider) GetSpot(underlying string, asOf time.Time) (float64, error) {
	rows, err := csvDataProv.load()
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if strings.EqualFold(row.quote.Underlying, underlying) && row.spot > 0 {
			return row.spot, nil
		}
	}
	if csvDataProv.secondary != nil {
		return csvDataProv.secondary.GetSpot(underlying, asOf)
	}
	return 0, fmt.Errorf("no spot for %s in %s", underlying, csvDataProv.path)
}

func (csvDataProv *csvDataProvider) GetQuotes(underlying string, asOf time.Time) ([]Quote, error) {
	rows, err := csvDataProv.load()
	if err != nil {
		return nil, err
	}

	var out []Quote
	for _, row := range rows {
		if strings.EqualFold(row.quote.Underlying, underlying) {
			out = append(out, row.quote)
		}
	}

	if len(out) == 0 && csvDataProv.secondary != nil {
		logger.Debugf("no %s quotes in %s, delegating to secondary", underlying, csvDataProv.path)
		return csvDataProv.secondary.GetQuotes(underlying, asOf)
	}
	return out, nil
}

type csvRow struct {
	quote Quote
	spot  float64
}

func (csvDataProv *csvDataProvider) load() ([]csvRow, error) {
	f, err := os.Open(csvDataProv.path)
	if err != nil {
		return nil, fmt.Errorf("open quote file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("quote file %s has no data rows", csvDataProv.path)
	}

	// map header names to column indexes so column order doesn't matter
	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"underlying", "option_type", "strike", "expiry"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("quote file %s missing column %q", csvDataProv.path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(field(row, name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	out := make([]csvRow, 0, len(records)-1)
	for n, row := range records[1:] {
		expiry, err := time.Parse("2006-01-02", field(row, "expiry"))
		if err != nil {
			logger.Debugf("skipping row %d: bad expiry %q", n+2, field(row, "expiry"))
			continue
		}
		out = append(out, csvRow{
			quote: Quote{
				Underlying: strings.ToUpper(field(row, "underlying")),
				OptionType: strings.ToLower(field(row, "option_type")),
				Strike:     num(row, "strike"),
				Expiry:     expiry,
				Bid:        num(row, "bid"),
				Ask:        num(row, "ask"),
				Last:       num(row, "last"),
			},
			spot: num(row, "spot"),
		})
	}
	return out, nil
}
