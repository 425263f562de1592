package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/skycast-ai/skycast/internal/records"
)

// Exporter encodes a record set into a byte stream of one format. Formats
// are independent: one exporter failing must not affect the others.
type Exporter interface {
	Format() string
	ContentType() string
	Encode(recs []records.WeatherRecord) ([]byte, error)
}

// All returns the supported exporters in presentation order.
func All() []Exporter {
	return []Exporter{JSONExporter{}, CSVExporter{}, PDFExporter{}}
}

// ByFormat looks up an exporter by its format name.
func ByFormat(format string) (Exporter, error) {
	for _, e := range All() {
		if e.Format() == format {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// JSONExporter renders records as an indented JSON array.
type JSONExporter struct{}

func (JSONExporter) Format() string      { return "json" }
func (JSONExporter) ContentType() string { return "application/json" }

func (JSONExporter) Encode(recs []records.WeatherRecord) ([]byte, error) {
	return json.MarshalIndent(recs, "", "  ")
}

// CSVExporter renders records as CSV with an id,city,temp,desc header.
type CSVExporter struct{}

func (CSVExporter) Format() string      { return "csv" }
func (CSVExporter) ContentType() string { return "text/csv" }

func (CSVExporter) Encode(recs []records.WeatherRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "city", "temp", "desc"}); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.City,
			strconv.FormatFloat(r.Temp, 'f', -1, 64),
			r.Desc,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDFExporter renders records one line per record.
type PDFExporter struct{}

func (PDFExporter) Format() string      { return "pdf" }
func (PDFExporter) ContentType() string { return "application/pdf" }

func (PDFExporter) Encode(recs []records.WeatherRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)

	for _, r := range recs {
		line := fmt.Sprintf("ID %d - %s - %.1f C - %s", r.ID, r.City, r.Temp, r.Desc)
		pdf.CellFormat(0, 10, line, "", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
