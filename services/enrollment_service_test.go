package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/services/payment"
	"github.com/englishmaster/api/utils/auth"
)

type fakeStore struct {
	courses     map[uint]*model.Course
	enrollments map[string]*model.Enrollment
	completed   map[string]bool // "userID/courseID" -> has completed enrollment
	nextID      int

	incremented    []uint
	attached       map[string]string
	failSetOrderID bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		courses:     map[uint]*model.Course{},
		enrollments: map[string]*model.Enrollment{},
		completed:   map[string]bool{},
		attached:    map[string]string{},
	}
}

func (f *fakeStore) addCourse(c *model.Course) { f.courses[c.ID] = c }

func (f *fakeStore) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	cp := *course
	return &cp, nil
}

func (f *fakeStore) CreateEnrollment(ctx context.Context, enrollment *model.Enrollment) error {
	f.nextID++
	enrollment.ID = fmt.Sprintf("enr-%04d", f.nextID)
	cp := *enrollment
	f.enrollments[enrollment.ID] = &cp
	return nil
}

func (f *fakeStore) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) SetOrderID(ctx context.Context, id, orderID string) error {
	if f.failSetOrderID {
		return errors.New("write failed")
	}
	e, ok := f.enrollments[id]
	if !ok {
		return ErrEnrollmentNotFound
	}
	e.RazorpayOrderID = orderID
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	e, ok := f.enrollments[id]
	if !ok {
		return ErrEnrollmentNotFound
	}
	e.PaymentID = update.PaymentID
	e.PaymentStatus = update.PaymentStatus
	e.UpdatedAt = update.UpdatedAt
	return nil
}

func (f *fakeStore) AttachInvoice(ctx context.Context, id, invoiceURL string) error {
	e, ok := f.enrollments[id]
	if !ok {
		return ErrEnrollmentNotFound
	}
	e.InvoiceURL = invoiceURL
	f.attached[id] = invoiceURL
	return nil
}

func (f *fakeStore) IncrementEnrollmentCount(ctx context.Context, courseID uint) error {
	f.incremented = append(f.incremented, courseID)
	return nil
}

func (f *fakeStore) HasCompletedEnrollment(ctx context.Context, userID, courseID uint) (bool, error) {
	return f.completed[fmt.Sprintf("%d/%d", userID, courseID)], nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range f.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeGateway struct {
	orders    int
	failOrder bool
	lastOrder struct {
		amount   int64
		currency string
		receipt  string
	}
}

// sigFor is the fake gateway's notion of a genuine signature: valid only for
// the order it was issued against, like the real HMAC.
func sigFor(orderID string) string {
	return "sig-" + orderID
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*payment.Order, error) {
	if f.failOrder {
		return nil, errors.New("gateway timeout")
	}
	f.orders++
	f.lastOrder.amount = amount
	f.lastOrder.currency = currency
	f.lastOrder.receipt = receipt
	return &payment.Order{
		OrderID:  fmt.Sprintf("order_%03d", f.orders),
		KeyID:    "rzp_test_key",
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == sigFor(orderID)
}

type fakeInvoices struct {
	calls int
	fail  bool
	url   string
}

func (f *fakeInvoices) GenerateAndUpload(ctx context.Context, enrollment *model.Enrollment) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	return f.url, nil
}

type fakeNotifier struct {
	calls int
	fail  bool
}

func (f *fakeNotifier) SendEnrollmentConfirmations(ctx context.Context, enrollment *model.Enrollment, course *model.Course) (*DispatchSummary, error) {
	f.calls++
	if f.fail {
		return &DispatchSummary{EnrollmentID: enrollment.ID}, ErrAllChannelsFailed
	}
	return &DispatchSummary{
		EnrollmentID: enrollment.ID,
		Results: []ChannelResult{
			{Channel: ChannelUserEmail, OK: true},
			{Channel: ChannelUserWhatsApp, OK: true},
			{Channel: ChannelAdminEmail, OK: true},
			{Channel: ChannelAdminWhatsApp, OK: true},
		},
	}, nil
}

func testIdentity() auth.Identity {
	return auth.Identity{UserID: 42, Email: "asha@example.com", Name: "Asha Verma", Phone: "+919876543210", Role: model.RoleUser}
}

func testContact() ContactDetails {
	return ContactDetails{Name: "Asha Verma", Email: "asha@example.com", Phone: "+919876543210"}
}

func newTestService() (*EnrollmentService, *fakeStore, *fakeGateway, *fakeInvoices, *fakeNotifier) {
	store := newFakeStore()
	store.addCourse(&model.Course{ID: 7, Name: "Grammar Basics", Price: 1000})

	gateway := &fakeGateway{}
	invoices := &fakeInvoices{url: "https://cdn.example.com/invoices/42/enr.pdf"}
	notifier := &fakeNotifier{}

	svc := NewEnrollmentService(store, gateway, invoices, notifier)
	return svc, store, gateway, invoices, notifier
}

func TestBeginCreatesPendingWithOrder(t *testing.T) {
	svc, store, gateway, _, _ := newTestService()

	session, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if session.Enrollment.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("status = %q, want pending", session.Enrollment.PaymentStatus)
	}
	if session.Enrollment.CourseName != "Grammar Basics" || session.Enrollment.CoursePrice != 1000 {
		t.Errorf("course snapshot not captured: %+v", session.Enrollment)
	}
	if session.Enrollment.UserName != "Asha Verma" {
		t.Errorf("user snapshot not captured: %+v", session.Enrollment)
	}
	if gateway.lastOrder.amount != 100000 {
		t.Errorf("order amount = %d paise, want 100000", gateway.lastOrder.amount)
	}
	if gateway.lastOrder.currency != "INR" {
		t.Errorf("order currency = %q, want INR", gateway.lastOrder.currency)
	}
	if session.Order.OrderID == "" || session.Order.KeyID == "" {
		t.Errorf("order handle incomplete: %+v", session.Order)
	}

	stored := store.enrollments[session.Enrollment.ID]
	if stored == nil {
		t.Fatal("enrollment not persisted")
	}
	if stored.RazorpayOrderID != session.Order.OrderID {
		t.Errorf("stored order id = %q, want %q", stored.RazorpayOrderID, session.Order.OrderID)
	}
}

func TestBeginUnknownCourse(t *testing.T) {
	svc, store, _, _, _ := newTestService()

	_, err := svc.Begin(context.Background(), testIdentity(), 999, testContact())
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("error = %v, want ErrCourseNotFound", err)
	}
	if len(store.enrollments) != 0 {
		t.Error("no enrollment may be created for an unknown course")
	}
}

func TestBeginRejectsCompletedDuplicate(t *testing.T) {
	svc, store, _, _, _ := newTestService()
	store.completed["42/7"] = true

	_, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("error = %v, want ErrAlreadyEnrolled", err)
	}
	if len(store.enrollments) != 0 {
		t.Error("no enrollment may be created when one is already completed")
	}
}

func TestBeginAllowsDuplicatePending(t *testing.T) {
	svc, store, _, _, _ := newTestService()

	// Two tabs, two checkout attempts: both proceed independently
	first, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err != nil {
		t.Fatalf("first Begin() error = %v", err)
	}
	second, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err != nil {
		t.Fatalf("second Begin() error = %v", err)
	}

	if first.Enrollment.ID == second.Enrollment.ID {
		t.Error("both attempts share one enrollment record")
	}
	if len(store.enrollments) != 2 {
		t.Errorf("stored enrollments = %d, want 2", len(store.enrollments))
	}
}

func TestBeginGatewayFailureMarksFailed(t *testing.T) {
	svc, store, gateway, _, _ := newTestService()
	gateway.failOrder = true

	_, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err == nil {
		t.Fatal("expected error when the gateway rejects the order")
	}

	if len(store.enrollments) != 1 {
		t.Fatalf("stored enrollments = %d, want 1", len(store.enrollments))
	}
	for _, e := range store.enrollments {
		if e.PaymentStatus != model.PaymentStatusFailed {
			t.Errorf("status = %q, want failed after gateway error", e.PaymentStatus)
		}
	}
}

func begin(t *testing.T, svc *EnrollmentService) *CheckoutSession {
	t.Helper()
	session, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return session
}

func TestCompleteHappyPath(t *testing.T) {
	svc, store, _, invoices, notifier := newTestService()
	session := begin(t, svc)

	result, err := svc.Complete(context.Background(), testIdentity(), session.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_123",
		OrderID:   session.Order.OrderID,
		Signature: sigFor(session.Order.OrderID),
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if result.Enrollment.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", result.Enrollment.PaymentStatus)
	}
	if result.Enrollment.PaymentID != "pay_123" {
		t.Errorf("payment id = %q, want pay_123", result.Enrollment.PaymentID)
	}
	if result.InvoiceURL != invoices.url {
		t.Errorf("invoice url = %q, want %q", result.InvoiceURL, invoices.url)
	}
	if store.attached[session.Enrollment.ID] != invoices.url {
		t.Error("invoice url not attached to the record")
	}
	if len(store.incremented) != 1 || store.incremented[0] != 7 {
		t.Errorf("enrollment count increments = %v, want [7]", store.incremented)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.calls)
	}
	if result.Notifications == nil || len(result.Notifications.Results) != 4 {
		t.Errorf("expected a four-channel notification summary, got %+v", result.Notifications)
	}
}

func TestCompleteBadSignature(t *testing.T) {
	svc, store, _, invoices, notifier := newTestService()
	session := begin(t, svc)

	_, err := svc.Complete(context.Background(), testIdentity(), session.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_123",
		OrderID:   session.Order.OrderID,
		Signature: "forged",
	})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("error = %v, want ErrVerificationFailed", err)
	}

	stored := store.enrollments[session.Enrollment.ID]
	if stored.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("status = %q, want failed after bad signature", stored.PaymentStatus)
	}
	if invoices.calls != 0 {
		t.Error("invoice must not be generated for a failed verification")
	}
	if notifier.calls != 0 {
		t.Error("notifications must not fire for a failed verification")
	}
	if len(store.incremented) != 0 {
		t.Error("enrollment count must not move for a failed verification")
	}
}

func TestCompleteRejectsAnotherOrdersCallback(t *testing.T) {
	svc, store, _, invoices, notifier := newTestService()
	store.addCourse(&model.Course{ID: 8, Name: "IELTS Preparation", Price: 10000})

	// Same user opens two checkouts: a cheap one and an expensive one.
	cheap := begin(t, svc)
	expensive, err := svc.Begin(context.Background(), testIdentity(), 8, testContact())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// The cheap order's genuinely signed callback must not complete the
	// expensive enrollment.
	_, err = svc.Complete(context.Background(), testIdentity(), expensive.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_cheap",
		OrderID:   cheap.Order.OrderID,
		Signature: sigFor(cheap.Order.OrderID),
	})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("error = %v, want ErrVerificationFailed", err)
	}

	if got := store.enrollments[expensive.Enrollment.ID].PaymentStatus; got != model.PaymentStatusFailed {
		t.Errorf("expensive enrollment status = %q, want failed", got)
	}
	if invoices.calls != 0 {
		t.Error("invoice must not be generated for a mismatched order")
	}
	if notifier.calls != 0 {
		t.Error("notifications must not fire for a mismatched order")
	}
	if len(store.incremented) != 0 {
		t.Error("enrollment count must not move for a mismatched order")
	}
}

func TestBeginOrderStampFailureMarksFailed(t *testing.T) {
	svc, store, _, _, _ := newTestService()
	store.failSetOrderID = true

	_, err := svc.Begin(context.Background(), testIdentity(), 7, testContact())
	if err == nil {
		t.Fatal("expected error when the order id cannot be stored")
	}

	if len(store.enrollments) != 1 {
		t.Fatalf("stored enrollments = %d, want 1", len(store.enrollments))
	}
	for _, e := range store.enrollments {
		if e.PaymentStatus != model.PaymentStatusFailed {
			t.Errorf("status = %q, want failed when the order id is lost", e.PaymentStatus)
		}
	}
}

func TestCompleteRejectsForeignEnrollment(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	session := begin(t, svc)

	other := testIdentity()
	other.UserID = 99

	_, err := svc.Complete(context.Background(), other, session.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_123",
		OrderID:   session.Order.OrderID,
		Signature: sigFor(session.Order.OrderID),
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("error = %v, want ErrNotOwner", err)
	}
}

func TestCompleteRejectsTerminalStates(t *testing.T) {
	for _, status := range []string{model.PaymentStatusCompleted, model.PaymentStatusFailed} {
		t.Run(status, func(t *testing.T) {
			svc, store, _, _, _ := newTestService()
			session := begin(t, svc)
			store.enrollments[session.Enrollment.ID].PaymentStatus = status

			_, err := svc.Complete(context.Background(), testIdentity(), session.Enrollment.ID, PaymentCallback{
				PaymentID: "pay_123",
				OrderID:   session.Order.OrderID,
				Signature: sigFor(session.Order.OrderID),
			})
			if !errors.Is(err, ErrNotPending) {
				t.Fatalf("error = %v, want ErrNotPending", err)
			}
		})
	}
}

func TestCompleteSurvivesInvoiceFailure(t *testing.T) {
	svc, store, _, invoices, notifier := newTestService()
	invoices.fail = true
	session := begin(t, svc)

	result, err := svc.Complete(context.Background(), testIdentity(), session.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_123",
		OrderID:   session.Order.OrderID,
		Signature: sigFor(session.Order.OrderID),
	})
	if err != nil {
		t.Fatalf("an invoice failure must not fail the completion, got %v", err)
	}

	if result.Enrollment.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", result.Enrollment.PaymentStatus)
	}
	if result.InvoiceURL != "" {
		t.Errorf("invoice url = %q, want empty", result.InvoiceURL)
	}
	if store.enrollments[session.Enrollment.ID].PaymentStatus != model.PaymentStatusCompleted {
		t.Error("stored status rolled back")
	}
	if notifier.calls != 1 {
		t.Error("notifications still fire when the invoice fails")
	}
}

func TestCompleteSurvivesNotificationFailure(t *testing.T) {
	svc, store, _, _, notifier := newTestService()
	notifier.fail = true
	session := begin(t, svc)

	result, err := svc.Complete(context.Background(), testIdentity(), session.Enrollment.ID, PaymentCallback{
		PaymentID: "pay_123",
		OrderID:   session.Order.OrderID,
		Signature: sigFor(session.Order.OrderID),
	})
	if err != nil {
		t.Fatalf("a notification failure must not fail the completion, got %v", err)
	}

	if result.Enrollment.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", result.Enrollment.PaymentStatus)
	}
	if store.enrollments[session.Enrollment.ID].PaymentStatus != model.PaymentStatusCompleted {
		t.Error("stored status rolled back")
	}
}

func TestFailMarksPendingFailed(t *testing.T) {
	svc, store, _, _, _ := newTestService()
	session := begin(t, svc)

	enrollment, err := svc.Fail(context.Background(), testIdentity(), session.Enrollment.ID, "payment widget dismissed")
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if enrollment.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", enrollment.PaymentStatus)
	}
	if store.enrollments[session.Enrollment.ID].PaymentStatus != model.PaymentStatusFailed {
		t.Error("stored status not failed")
	}
}

func TestFailRejectsCompleted(t *testing.T) {
	svc, store, _, _, _ := newTestService()
	session := begin(t, svc)
	store.enrollments[session.Enrollment.ID].PaymentStatus = model.PaymentStatusCompleted

	_, err := svc.Fail(context.Background(), testIdentity(), session.Enrollment.ID, "")
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("error = %v, want ErrNotPending", err)
	}
}

func TestFailUnknownEnrollment(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Fail(context.Background(), testIdentity(), "missing", "")
	if !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("error = %v, want ErrEnrollmentNotFound", err)
	}
}
