// Package export renders the visible rows of a list screen as CSV, XLSX or
// PDF downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"marketadmin/internal/listing"
)

// Format names accepted by Write.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Supported reports whether format can be produced.
func Supported(format string) bool {
	return format == FormatCSV || format == FormatXLSX || format == FormatPDF
}

// Write renders rows in format to w.
func Write[T any](w io.Writer, format, title string, cols []listing.Column[T], rows []T) error {
	switch format {
	case FormatCSV:
		return CSV(w, cols, rows)
	case FormatXLSX:
		return XLSX(w, title, cols, rows)
	case FormatPDF:
		return PDF(w, title, cols, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// CSV writes a header row followed by one record per row.
func CSV[T any](w io.Writer, cols []listing.Column[T], rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(cols)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(record(cols, row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func headers[T any](cols []listing.Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func record[T any](cols []listing.Column[T], row T) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Value(row)
	}
	return out
}
