package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"cortexstat/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// Save writes ds to path as CSV or Excel, by extension. Missing values are
// written as empty cells. Parent directories are created.
func (r *DataReader) Save(ctx context.Context, ds *dataset.Dataset, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, err := fileType(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	switch kind {
	case "csv":
		err = r.writeCSV(ds, path)
	case "xlsx":
		err = r.writeExcel(ds, path)
	}
	if err != nil {
		return err
	}
	r.logger.Info("Cleaned data saved to %s (%d rows, %d columns)", path, ds.Len(), ds.Width())
	return nil
}

func (r *DataReader) writeCSV(ds *dataset.Dataset, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(ds.Names()); err != nil {
		return err
	}
	cols := columns(ds)
	record := make([]string, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, c := range cols {
			record[j] = c.Format(i)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return file.Close()
}

func (r *DataReader) writeExcel(ds *dataset.Dataset, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.config.Sheet
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	header := make([]interface{}, ds.Width())
	for j, name := range ds.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	cols := columns(ds)
	for i := 0; i < ds.Len(); i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			switch c.Kind() {
			case dataset.Numeric:
				if v, ok := c.Float(i); ok {
					row[j] = v
				}
			default:
				if l, ok := c.Label(i); ok {
					row[j] = l
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func columns(ds *dataset.Dataset) []*dataset.Column {
	cols := make([]*dataset.Column, 0, ds.Width())
	for _, name := range ds.Names() {
		c, _ := ds.Column(name)
		cols = append(cols, c)
	}
	return cols
}
