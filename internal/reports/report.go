package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Record carries the fields of a single prediction that appear on its
// printable report. It is a value copy: rendering never mutates or holds a
// reference to the source record.
type Record struct {
	Label      string
	Confidence float64
	CreatedAt  time.Time
	ImageRef   string
}

const (
	titleText  = "Kidney Disease Prediction Report"
	dateLayout = "2006-01-02 15:04:05"
)

// Render produces the PDF report for a record. Output is deterministic: the
// document creation date is pinned to the record's timestamp, so the same
// record always renders to identical bytes. The rendered document is verified
// structurally before being returned.
func Render(rec Record) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(rec.CreatedAt.UTC())
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 12, titleText, "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Arial", "", 12)
	lines := []string{
		fmt.Sprintf("Prediction: %s", rec.Label),
		fmt.Sprintf("Confidence: %.2f%%", rec.Confidence),
		fmt.Sprintf("Date: %s", rec.CreatedAt.UTC().Format(dateLayout)),
		fmt.Sprintf("Image: %s", rec.ImageRef),
	}
	for _, line := range lines {
		doc.CellFormat(0, 10, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	if err := verify(buf.Bytes()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// verify checks that the rendered bytes form a readable single-page PDF.
func verify(data []byte) error {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	if count != 1 {
		return fmt.Errorf("%w: unexpected page count %d", ErrRenderFailure, count)
	}
	return nil
}
