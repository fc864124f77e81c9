package awards

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderCertificate lays out a delivery certificate for one history entry.
func RenderCertificate(entry HistoryEntry, organizationName string, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(entry.AwardTitle+" "+entry.Period, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr(entry.AwardTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	if organizationName != "" {
		pdf.CellFormat(0, 8, tr(organizationName), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 8, tr("Período "+entry.Period), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(30, 9, tr("Posição"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(140, 9, tr("Colaborador"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, tr("Prêmio"), "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, w := range entry.Winners {
		pdf.CellFormat(30, 9, tr(fmt.Sprintf("%dº", w.Rank)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(140, 9, tr(w.EmployeeName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 9, tr(w.Prize), "1", 1, "L", false, 0, "")
	}
	if len(entry.Winners) == 0 {
		pdf.CellFormat(0, 9, tr("Nenhum vencedor elegível"), "1", 1, "C", false, 0, "")
	}

	if entry.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, tr(entry.Notes), "", "L", false)
	}
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Emitido em "+issuedAt.UTC().Format("02/01/2006"), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
