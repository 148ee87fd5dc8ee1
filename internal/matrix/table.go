package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TableSheet is the worksheet name used for spreadsheet exports.
const TableSheet = "SSIM Table"

var ErrUnsupportedFormat = errors.New("unsupported table format")

// TableHeader is the first row of every exported table.
var TableHeader = []string{"image1", "image2", "similarity"}

// Pair is one row of the upper-triangle table.
type Pair struct {
	Image1     int     `json:"image1"`
	Image2     int     `json:"image2"`
	Similarity float64 `json:"similarity"`
}

// Pairs lists m[i][k] for every i <= k, numbering images from firstID.
func Pairs(m Matrix, firstID int) []Pair {
	n := len(m)
	pairs := make([]Pair, 0, n*(n+1)/2)
	for i := range n {
		for k := i; k < n; k++ {
			pairs = append(pairs, Pair{
				Image1:     i + firstID,
				Image2:     k + firstID,
				Similarity: m[i][k],
			})
		}
	}
	return pairs
}

// WriteTable writes pairs to path. The format follows the extension:
// .csv or .xlsx.
func WriteTable(path string, pairs []Pair) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, pairs)
	case ".xlsx":
		return writeXLSX(path, pairs)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeCSV(path string, pairs []Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}

	w := csv.NewWriter(f)
	records := make([][]string, 0, len(pairs)+1)
	records = append(records, TableHeader)
	for _, p := range pairs {
		records = append(records, []string{
			strconv.Itoa(p.Image1),
			strconv.Itoa(p.Image2),
			strconv.FormatFloat(p.Similarity, 'g', -1, 64),
		})
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("writing CSV table: %w", err)
	}
	return f.Close()
}

func writeXLSX(path string, pairs []Pair) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TableSheet); err != nil {
		return fmt.Errorf("naming worksheet: %w", err)
	}

	header := make([]any, len(TableHeader))
	for i, h := range TableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(TableSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i, p := range pairs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Image1, p.Image2, p.Similarity}
		if err := f.SetSheetRow(TableSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
