// Package output writes report rows as CSV or NDJSON.
//
// Rows are flat string records in a fixed column order. The CSV writer
// emits them as-is; the NDJSON writer turns each row into one JSON object
// keyed by column name, with typed values and null for empty cells.
// Both writers flush every row so nothing accumulates in memory.
//
// Example usage:
//
//	w, err := output.Open("contributors.csv", output.FormatCSV, output.ContributorColumns(true), false)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	for _, row := range report.Rows {
//	    if err := w.WriteRow(row.Record(true)); err != nil {
//	        return err
//	    }
//	}
package output
