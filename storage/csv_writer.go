package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ipo-checker/models"
	"ipo-checker/services"
	"ipo-checker/utils"
)

// CSVWriter exports the result set as one row per application ID.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write saves every result to the CSV file, creating its directory if needed.
//
// CSV columns: company, id, allotted, shares, result
func (w *CSVWriter) Write(set models.ResultSet) error {
	if services.Count(set) == 0 {
		utils.Warn("No results to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"company", "id", "allotted", "shares", "result"}); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	rows := 0
	for _, g := range set {
		for _, r := range g.Results {
			shares := services.AllottedShares(r.HTML)
			if err := writer.Write([]string{
				g.Company,
				r.ID,
				strconv.FormatBool(shares > 0),
				strconv.Itoa(shares),
				r.HTML,
			}); err != nil {
				return fmt.Errorf("csv write error: %w", err)
			}
			rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d results → %s", rows, w.path)
	return nil
}
