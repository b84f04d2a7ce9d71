package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/englishmaster/api/model"
	"github.com/jung-kurt/gofpdf"
)

// GST rate applied to every invoice line
const invoiceGSTRate = 0.18

// BlobUploader persists rendered invoice bytes and returns a retrieval URL.
type BlobUploader interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// InvoiceService renders enrollment invoices as single-page PDFs and uploads
// them to blob storage. Amounts always come from the enrollment's snapshot
// price, never from the live course record.
type InvoiceService struct {
	uploader BlobUploader
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(uploader BlobUploader) *InvoiceService {
	return &InvoiceService{uploader: uploader}
}

// InvoiceNumber derives the invoice number from the enrollment identifier:
// "INV-" plus the first eight characters, uppercased.
func InvoiceNumber(enrollmentID string) string {
	id := enrollmentID
	if len(id) > 8 {
		id = id[:8]
	}
	return "INV-" + strings.ToUpper(id)
}

// InvoiceTotals returns the GST surcharge and grand total for a snapshot price.
func InvoiceTotals(price int) (gst float64, total float64) {
	gst = float64(price) * invoiceGSTRate
	total = float64(price) + gst
	return gst, total
}

// InvoiceKey is the storage path for an enrollment's invoice. Regenerating
// an invoice overwrites the same key.
func InvoiceKey(userID uint, enrollmentID string) string {
	return fmt.Sprintf("invoices/%d/%s.pdf", userID, enrollmentID)
}

// Render produces the invoice PDF for a completed enrollment.
func (s *InvoiceService) Render(enrollment *model.Enrollment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice for %s", enrollment.CourseName), true)
	pdf.SetAuthor("EnglishMaster", true)
	pdf.AddPage()

	// Brand header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(30, 64, 175)
	pdf.Text(15, 20, "EnglishMaster")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(15, 30, "INVOICE")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(15, 40, fmt.Sprintf("Invoice Number: %s", InvoiceNumber(enrollment.ID)))
	pdf.Text(15, 45, fmt.Sprintf("Date: %s", enrollment.EnrolledAt.Format("02/01/2006")))

	// Billed-to block
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(15, 55, "Bill To:")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(15, 60, enrollment.UserName)
	pdf.Text(15, 65, enrollment.UserEmail)
	pdf.Text(15, 70, enrollment.UserPhone)

	// Line item table
	pdf.Line(15, 80, 195, 80)
	pdf.Text(15, 85, "Description")
	pdf.Text(160, 85, "Amount")
	pdf.Line(15, 90, 195, 90)

	gst, total := InvoiceTotals(enrollment.CoursePrice)

	pdf.Text(15, 100, enrollment.CourseName)
	pdf.Text(160, 100, fmt.Sprintf("Rs. %.2f", float64(enrollment.CoursePrice)))

	pdf.Text(15, 110, "GST (18%)")
	pdf.Text(160, 110, fmt.Sprintf("Rs. %.2f", gst))

	pdf.Line(15, 120, 195, 120)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(15, 130, "Total")
	pdf.Text(160, 130, fmt.Sprintf("Rs. %.2f", total))
	pdf.Line(15, 135, 195, 135)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(15, 145, fmt.Sprintf("Payment ID: %s", enrollment.PaymentID))
	pdf.Text(15, 150, "Payment Status: Completed")

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(15, 170, "Thank you for your enrollment!")
	pdf.Text(15, 175, "For any queries, please contact us at support@englishmaster.com")
	pdf.Text(15, 280, fmt.Sprintf("(c) EnglishMaster, %d", time.Now().Year()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateAndUpload renders the invoice and uploads it, returning the
// retrieval URL. The caller is responsible for attaching the URL to the
// enrollment record.
func (s *InvoiceService) GenerateAndUpload(ctx context.Context, enrollment *model.Enrollment) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("no blob storage configured")
	}

	data, err := s.Render(enrollment)
	if err != nil {
		return "", err
	}

	key := InvoiceKey(enrollment.UserID, enrollment.ID)
	url, err := s.uploader.UploadBytes(ctx, key, data, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("failed to upload invoice: %w", err)
	}

	return url, nil
}
