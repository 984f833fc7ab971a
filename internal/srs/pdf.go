package srs

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

type fpdfMeasurer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func (m *fpdfMeasurer) Width(text string, style Style) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(style), style.Size)
	return m.pdf.GetStringWidth(m.translate(text))
}

func fontStyle(s Style) string {
	if s.Bold {
		return "B"
	}
	return ""
}

// RenderPDF paginates the outline on A4 pages and writes the PDF to w.
// Text is translated to the core font code page, so characters outside it
// are dropped.
func RenderPDF(w io.Writer, o Outline) error {
	layout := A4
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(layout.Margin, layout.Margin, layout.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(DocumentTitle+" - "+o.Meta.ProjectTitle, true)
	pdf.SetSubject(o.Meta.ProjectTitle, true)
	pdf.SetAuthor(o.Meta.CompanyName, true)
	pdf.SetCreator("requira", false)
	if !o.Meta.Date.IsZero() {
		pdf.SetCreationDate(o.Meta.Date)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pages := Paginate(o, &fpdfMeasurer{pdf: pdf, translate: tr}, layout)

	drawTitlePage(pdf, tr, o.Meta, layout)
	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			drawLine(pdf, tr, line, layout)
		}
		drawFooter(pdf, tr, o.Meta.ProjectTitle, page.Number, len(pages), layout)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func drawTitlePage(pdf *fpdf.Fpdf, tr func(string) string, meta Meta, layout Layout) {
	pdf.AddPage()
	width := layout.ContentWidth()

	centered := func(y float64, style string, size float64, text string) {
		pdf.SetFont(fontFamily, style, size)
		pdf.SetXY(layout.Margin, y)
		pdf.CellFormat(width, size*0.5, tr(text), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(33, 37, 41)
	centered(80, "B", 24, DocumentTitle)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.4)
	pdf.Line(layout.Margin+30, 98, layout.PageWidth-layout.Margin-30, 98)
	centered(110, "B", 18, meta.ProjectTitle)

	pdf.SetTextColor(80, 80, 80)
	centered(140, "", 12, "Prepared for: "+orDefault(meta.ClientName, "Unknown"))
	centered(150, "", 12, "Company: "+orDefault(meta.CompanyName, "Unknown"))
	if !meta.Date.IsZero() {
		centered(160, "", 12, "Date: "+meta.Date.Format("January 2, 2006"))
	}
	centered(170, "", 12, "Version "+Version)
	pdf.SetTextColor(0, 0, 0)
}

func drawLine(pdf *fpdf.Fpdf, tr func(string) string, line PlacedLine, layout Layout) {
	st := line.Style
	pdf.SetFont(fontFamily, fontStyle(st), st.Size)
	if line.Kind == KindBullet && line.First {
		pdf.SetXY(line.X-4, line.Y)
		pdf.CellFormat(4, st.LineHeight, tr("•"), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(line.X, line.Y)
	pdf.CellFormat(layout.PageWidth-layout.Margin-line.X, st.LineHeight, tr(line.Text), "", 0, "L", false, 0, "")
}

func drawFooter(pdf *fpdf.Fpdf, tr func(string) string, title string, number, total int, layout Layout) {
	y := layout.PageHeight - layout.Margin
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	pdf.Line(layout.Margin, y-2, layout.PageWidth-layout.Margin, y-2)

	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(110, 110, 110)
	half := layout.ContentWidth() / 2
	pdf.SetXY(layout.Margin, y)
	pdf.CellFormat(half, 5, tr(title), "", 0, "L", false, 0, "")
	pdf.SetXY(layout.Margin+half, y)
	pdf.CellFormat(half, 5, fmt.Sprintf("Page %d of %d", number, total), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
