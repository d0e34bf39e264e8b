// Package pdfsvc renders document contexts to PDF. The core builds the
// content; layout decisions live here.
package pdfsvc

import (
	"bytes"
	"context"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

type gofpdfService struct {
	appName string
}

var _ core.DocumentService = (*gofpdfService)(nil)

func NewGofpdfService() *gofpdfService {
	return &gofpdfService{appName: core.Conf.AppName}
}

func (svc gofpdfService) RenderDocument(ctx context.Context, doc core.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, doc.Title, "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	for _, field := range doc.Meta {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, field.Label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, field.Value, "", 1, "L", false, 0, "")
	}
	if len(doc.Meta) > 0 {
		pdf.Ln(4)
	}

	for _, p := range doc.Paragraphs {
		pdf.MultiCell(0, 6, p, "", "L", false)
		pdf.Ln(2)
	}

	if len(doc.Table.Header) > 0 {
		svc.renderTable(pdf, doc.Table)
	}

	if doc.Footer != "" {
		pdf.Ln(12)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, doc.Footer, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "rendering PDF")
	}
	return buf.Bytes(), nil
}

func (svc gofpdfService) renderTable(pdf *gofpdf.Fpdf, table core.DocumentTable) {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(table.Header))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range table.Header {
		pdf.CellFormat(colW, 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range table.Rows {
		for _, cell := range row {
			pdf.CellFormat(colW, 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
