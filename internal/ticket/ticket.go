// Package ticket renders bookings as printable PDF tickets.
package ticket

import (
	"fmt"
	"io"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/phpdave11/gofpdf"
)

// Filename is the suggested download name for b's ticket.
func Filename(b *domain.Booking) string {
	return fmt.Sprintf("ticket-%s.pdf", b.Reference)
}

func Render(w io.Writer, b *domain.Booking) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket "+b.Reference, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAVEL TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Reference  : " + b.Reference,
		"Passenger  : " + tr(b.PassengerFirstName+" "+b.PassengerLastName),
		"From       : " + tr(b.OriginName),
		"To         : " + tr(b.DestinationName),
		"Departs    : " + wallClock(b.Departs),
		"Arrives    : " + wallClock(b.Arrives),
		"Operator   : " + tr(b.OperatorName),
		fmt.Sprintf("Price      : %.2f", b.Price),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one passenger. Times are local to the departure and arrival stops.", "", "", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render ticket %s: %w", b.Reference, err)
	}
	return nil
}

func wallClock(spec domain.TimestampSpec) string {
	v := spec.Value
	if len(v) > len("2006-01-02 15:04") {
		v = v[:len("2006-01-02 15:04")]
	}
	if spec.Timezone == "" {
		return v
	}
	return v + " " + spec.Timezone
}
