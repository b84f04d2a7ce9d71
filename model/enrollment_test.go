package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to completed", PaymentStatusPending, PaymentStatusCompleted, true},
		{"pending to failed", PaymentStatusPending, PaymentStatusFailed, true},
		{"pending to pending", PaymentStatusPending, PaymentStatusPending, false},
		{"completed to failed", PaymentStatusCompleted, PaymentStatusFailed, false},
		{"completed to pending", PaymentStatusCompleted, PaymentStatusPending, false},
		{"failed to completed", PaymentStatusFailed, PaymentStatusCompleted, false},
		{"failed to pending", PaymentStatusFailed, PaymentStatusPending, false},
		{"unknown from", "refunded", PaymentStatusCompleted, false},
		{"unknown to", PaymentStatusPending, "refunded", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PaymentStatusPending, false},
		{PaymentStatusCompleted, true},
		{PaymentStatusFailed, true},
	}

	for _, tt := range tests {
		e := Enrollment{PaymentStatus: tt.status}
		if got := e.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestMatchesSearch(t *testing.T) {
	enrollment := Enrollment{
		UserName:   "Asha Verma",
		UserEmail:  "asha.verma@example.com",
		UserPhone:  "+919876543210",
		CourseName: "Grammar Basics",
	}

	tests := []struct {
		name string
		term string
		want bool
	}{
		{"empty term matches", "", true},
		{"partial course name", "gramm", true},
		{"case-insensitive name", "ASHA", true},
		{"email fragment", "verma@example", true},
		{"phone fragment", "98765", true},
		{"no match", "ielts", false},
		{"no match across fields", "business", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enrollment.MatchesSearch(tt.term); got != tt.want {
				t.Errorf("MatchesSearch(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}
