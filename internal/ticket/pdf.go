// Package ticket renders printable eTickets for confirmed reservations.
package ticket

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/underclub/event-ticket-reservation/internal/model"
)

// EventInfo carries the static event details printed on every ticket.
type EventInfo struct {
	Name     string
	Date     string
	Venue    string
	Location string
	Lineup   string
}

// Generator renders single-page A4 eTickets with an entry QR code.
type Generator struct {
	event     EventInfo
	verifyURL string
}

// NewGenerator returns a Generator. verifyURL is the base URL encoded in
// the QR code; the confirmation code is appended as a path segment.
func NewGenerator(event EventInfo, verifyURL string) *Generator {
	return &Generator{event: event, verifyURL: strings.TrimRight(verifyURL, "/")}
}

// Render produces the PDF bytes for a reservation. The caller is expected
// to have checked that the reservation is not cancelled.
func (g *Generator) Render(r *model.Reservation, tier model.Tier) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)

	// Header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, strings.ToUpper(g.event.Name)+" - eTICKET")
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	// Reservation summary block with QR on the right.
	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "RESERVATION")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Code: %s", r.Code))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Name: %s %s", r.FirstName, r.LastName))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", r.Email))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Tier: %s", tier.Label))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Price: EUR %.2f", float64(tier.PriceCents)/100))

	qrURL := fmt.Sprintf("%s/%s", g.verifyURL, r.Code)
	qrBytes, err := qrcode.Encode(qrURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrBytes))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Show this QR code at the door for check-in.")
	pdf.Ln(10)

	// Event details
	drawSectionTitle(pdf, "EVENT DETAILS")
	pdf.SetFont("Helvetica", "", 12)
	if g.event.Date != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Date: %s", g.event.Date))
		pdf.Ln(6)
	}
	if g.event.Venue != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Venue: %s", g.event.Venue))
		pdf.Ln(6)
	}
	if g.event.Location != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Location: %s", g.event.Location))
		pdf.Ln(6)
	}
	if g.event.Lineup != "" {
		pdf.MultiCell(0, 8, fmt.Sprintf("Lineup: %s", g.event.Lineup), "", "", false)
		pdf.Ln(6)
	}

	// Admission notes
	drawSectionTitle(pdf, "ADMISSION")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, "Valid ID required at the door. Admission 18+.")
	pdf.Ln(6)
	pdf.Cell(0, 8, "The ticket is personal and valid for a single entry.")
	pdf.Ln(6)

	// Footer
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	footer := fmt.Sprintf("Issued %s - %s", time.Now().UTC().Format("2006-01-02"), g.event.Name)
	pdf.CellFormat(0, 8, footer, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawSectionTitle adds consistent section headers.
func drawSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
