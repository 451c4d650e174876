package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cortexstat/domain/core"
	"cortexstat/domain/dataset"
	"cortexstat/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads and writes datasets as CSV or Excel files, chosen by
// file extension
type DataReader struct {
	config Config
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config Config, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Sheet == "" {
		config.Sheet = DefaultConfig().Sheet
	}
	return &DataReader{config: config, logger: logger}
}

// fileType returns "csv" or "xlsx" for path
func fileType(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return "csv", nil
	case ".xlsx", ".xlsm":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
}

// Load reads a dataset from a CSV or Excel file. Any failure, including a
// file without data rows, is reported as a load error.
func (r *DataReader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind, err := fileType(path)
	if err != nil {
		return nil, core.NewLoadError(path, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, core.NewLoadError(path, err)
	}

	start := time.Now()
	var raw *RawTable
	switch kind {
	case "csv":
		raw, err = r.readCSV(path)
	case "xlsx":
		raw, err = r.readExcel(path)
	}
	if err != nil {
		return nil, core.NewLoadError(path, err)
	}

	ds, err := r.toDataset(raw)
	if err != nil {
		return nil, core.NewLoadError(path, err)
	}

	r.logger.Info("Loaded %s: %d rows, %d columns in %.2fms", path, ds.Len(), ds.Width(), float64(time.Since(start).Nanoseconds())/1e6)
	return ds, nil
}

// readExcel reads the configured sheet
func (r *DataReader) readExcel(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.config.Sheet, err)
	}
	return r.processRows(rows)
}

// readCSV reads a comma-separated file with one header row
func (r *DataReader) readCSV(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return r.processRows(rows)
}

// processRows splits off the header row and pads short rows; Excel omits
// trailing empty cells.
func (r *DataReader) processRows(rows [][]string) (*RawTable, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have at least a header row and one data row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		headers[i] = h
	}

	data := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(row), len(headers))
		}
		padded := make([]string, len(headers))
		for j, cell := range row {
			padded[j] = strings.TrimSpace(cell)
		}
		data = append(data, padded)
	}
	return &RawTable{Headers: headers, Rows: data}, nil
}

// toDataset infers each column's kind: numeric when every present cell
// parses as a number, categorical otherwise. A column without any present
// cell is numeric.
func (r *DataReader) toDataset(raw *RawTable) (*dataset.Dataset, error) {
	columns := make([]*dataset.Column, len(raw.Headers))
	for j, name := range raw.Headers {
		n := len(raw.Rows)
		nums := make([]float64, n)
		valid := make([]bool, n)
		numeric := true
		for i, row := range raw.Rows {
			cell := row[j]
			if r.config.isMissing(cell) {
				continue
			}
			valid[i] = true
			if !numeric {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				continue
			}
			nums[i] = v
		}

		if numeric {
			columns[j] = dataset.NewNumericColumn(name, nums, valid)
			continue
		}
		labels := make([]string, n)
		for i, row := range raw.Rows {
			if valid[i] {
				labels[i] = row[j]
			}
		}
		columns[j] = dataset.NewCategoricalColumn(name, labels, valid)
	}
	return dataset.New(columns...)
}
