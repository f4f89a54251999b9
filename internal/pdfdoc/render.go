package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Renderer lays plain text out on A4 pages under a bold title.
type Renderer struct {
	Font     string
	BodySize float64
}

// NewRenderer returns a Renderer using the Helvetica core font.
func NewRenderer() *Renderer {
	return &Renderer{Font: "Helvetica", BodySize: 11}
}

// Render writes a new PDF at outPath containing title followed by text.
// Characters outside cp1252 cannot be represented by the core fonts and are dropped.
func (r *Renderer) Render(outPath, title, text string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(title, true)
	doc.AddPage()

	doc.SetFont(r.Font, "B", 16)
	doc.MultiCell(0, 8, tr(title), "", "L", false)
	doc.Ln(6)

	doc.SetFont(r.Font, "", r.BodySize)
	body := strings.ReplaceAll(text, "\r\n", "\n")
	doc.MultiCell(0, r.BodySize*0.5, tr(body), "", "L", false)

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
