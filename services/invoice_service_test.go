package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/englishmaster/api/model"
)

func TestInvoiceNumber(t *testing.T) {
	tests := []struct {
		name         string
		enrollmentID string
		want         string
	}{
		{"uuid truncated and uppercased", "a1b2c3d4-e5f6-7890-abcd-ef1234567890", "INV-A1B2C3D4"},
		{"short id kept whole", "abc", "INV-ABC"},
		{"exactly eight chars", "12345678", "INV-12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvoiceNumber(tt.enrollmentID); got != tt.want {
				t.Errorf("InvoiceNumber(%q) = %q, want %q", tt.enrollmentID, got, tt.want)
			}
		})
	}
}

func TestInvoiceTotals(t *testing.T) {
	tests := []struct {
		price     int
		wantGST   float64
		wantTotal float64
	}{
		{1000, 180.0, 1180.0},
		{1500, 270.0, 1770.0},
		{0, 0.0, 0.0},
	}

	for _, tt := range tests {
		gst, total := InvoiceTotals(tt.price)
		if gst != tt.wantGST || total != tt.wantTotal {
			t.Errorf("InvoiceTotals(%d) = (%.2f, %.2f), want (%.2f, %.2f)",
				tt.price, gst, total, tt.wantGST, tt.wantTotal)
		}
	}
}

func TestInvoiceKey(t *testing.T) {
	got := InvoiceKey(42, "a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	want := "invoices/42/a1b2c3d4-e5f6-7890-abcd-ef1234567890.pdf"
	if got != want {
		t.Errorf("InvoiceKey() = %q, want %q", got, want)
	}
}

func testEnrollment() *model.Enrollment {
	return &model.Enrollment{
		ID:          "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		UserID:      42,
		CourseID:    7,
		UserName:    "Asha Verma",
		UserEmail:   "asha@example.com",
		UserPhone:   "+919876543210",
		CourseName:  "Grammar Basics",
		CoursePrice: 1000,
		PaymentID:   "pay_Nxy456def",
		EnrolledAt:  time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	svc := NewInvoiceService(nil)

	data, err := svc.Render(testEnrollment())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("rendered invoice does not start with %%PDF header")
	}
	if len(data) < 500 {
		t.Errorf("rendered invoice suspiciously small: %d bytes", len(data))
	}
}

type fakeUploader struct {
	key         string
	contentType string
	data        []byte
	url         string
	err         error
}

func (f *fakeUploader) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.key = key
	f.data = data
	f.contentType = contentType
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestGenerateAndUpload(t *testing.T) {
	uploader := &fakeUploader{url: "https://cdn.example.com/invoices/42/a1b2c3d4.pdf"}
	svc := NewInvoiceService(uploader)

	url, err := svc.GenerateAndUpload(context.Background(), testEnrollment())
	if err != nil {
		t.Fatalf("GenerateAndUpload() error = %v", err)
	}

	if url != uploader.url {
		t.Errorf("GenerateAndUpload() url = %q, want %q", url, uploader.url)
	}
	if uploader.key != "invoices/42/a1b2c3d4-e5f6-7890-abcd-ef1234567890.pdf" {
		t.Errorf("uploaded to wrong key %q", uploader.key)
	}
	if uploader.contentType != "application/pdf" {
		t.Errorf("uploaded with content type %q, want application/pdf", uploader.contentType)
	}
	if !bytes.HasPrefix(uploader.data, []byte("%PDF")) {
		t.Error("uploaded bytes are not a PDF")
	}
}

func TestGenerateAndUploadPropagatesUploadError(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unavailable")}
	svc := NewInvoiceService(uploader)

	if _, err := svc.GenerateAndUpload(context.Background(), testEnrollment()); err == nil {
		t.Fatal("expected error when upload fails")
	}
}

func TestGenerateAndUploadWithoutStorage(t *testing.T) {
	svc := NewInvoiceService(nil)

	if _, err := svc.GenerateAndUpload(context.Background(), testEnrollment()); err == nil {
		t.Fatal("expected error when no blob storage is configured")
	}
}
