package cli

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/chw3k5/mypysql/internal/engine"
	"github.com/chw3k5/mypysql/internal/ir"
)

const recordsSheet = "records"

// writeXLSX writes res to path as a workbook with one "records" sheet.
// The header row holds the column names; each record is one row.
func writeXLSX(path string, res *engine.Result) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(recordsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, rec := range res.Records {
		row := make([]any, len(rec.Columns))
		for c, col := range rec.Columns {
			row[c] = cellValue(col)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(recordsSheet, cell, &row); err != nil {
			return fmt.Errorf("write record %d: %w", r+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// cellValue keeps a lone scalar or bare bundle value numeric so that the
// spreadsheet can sort and plot it. Anything else is the formatted text.
func cellValue(col ir.ColumnValues) any {
	var v ir.Value
	switch {
	case col.Kind == ir.ColumnAttribute && len(col.Bundles) == 1:
		b := col.Bundles[0]
		if !ir.IsNull(b.ErrLow) || !ir.IsNull(b.ErrHigh) || !ir.IsNull(b.Units) || !ir.IsNull(b.Ref) {
			return formatColumn(col)
		}
		v = b.Value
	case col.Kind != ir.ColumnAttribute && len(col.Scalars) == 1:
		v = col.Scalars[0]
	default:
		return formatColumn(col)
	}

	switch x := v.(type) {
	case ir.Int:
		return int64(x)
	case ir.Float:
		return float64(x)
	case ir.Null:
		return nil
	default:
		return ir.Format(v)
	}
}
