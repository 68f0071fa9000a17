package services

import (
	"testing"
	"time"
)

var june2025 = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestNextInvoiceNumberNoPriorInvoice(t *testing.T) {
	got := NextInvoiceNumber("", june2025)
	if got != "INV-202506-001" {
		t.Fatalf("expected INV-202506-001, got %s", got)
	}
}

func TestNextInvoiceNumberIncrementsSamePeriod(t *testing.T) {
	got := NextInvoiceNumber("INV-202506-007", june2025)
	if got != "INV-202506-008" {
		t.Fatalf("expected INV-202506-008, got %s", got)
	}
}

func TestNextInvoiceNumberResetsOnNewMonth(t *testing.T) {
	got := NextInvoiceNumber("INV-202505-003", june2025)
	if got != "INV-202506-001" {
		t.Fatalf("expected monthly reset to INV-202506-001, got %s", got)
	}
}

func TestNextInvoiceNumberMalformedPrior(t *testing.T) {
	cases := []string{
		"FOO-202506-003", // wrong prefix
		"INV-202506",     // too few parts
		"INV-202506-3-1", // too many parts
		"INV-202506-abc", // non-numeric sequence
		"free-form",
	}
	for _, last := range cases {
		if got := NextInvoiceNumber(last, june2025); got != "INV-202506-001" {
			t.Errorf("last=%q: expected fallback INV-202506-001, got %s", last, got)
		}
	}
}

func TestNextInvoiceNumberPadsSequence(t *testing.T) {
	if got := NextInvoiceNumber("INV-202506-009", june2025); got != "INV-202506-010" {
		t.Fatalf("expected INV-202506-010, got %s", got)
	}
	// Past 999 the sequence simply keeps growing
	if got := NextInvoiceNumber("INV-202506-999", june2025); got != "INV-202506-1000" {
		t.Fatalf("expected INV-202506-1000, got %s", got)
	}
}

func TestPeriodToken(t *testing.T) {
	if got := PeriodToken(june2025); got != "202506" {
		t.Fatalf("expected 202506, got %s", got)
	}
	if got := PeriodToken(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)); got != "202601" {
		t.Fatalf("expected 202601, got %s", got)
	}
}
