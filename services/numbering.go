package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodToken builds the year-month token the numbering sequence is scoped
// to, e.g. "202506".
func PeriodToken(t time.Time) string {
	return t.Format("200601")
}

// NextInvoiceNumber suggests the number for a tenant's next invoice based on
// the number of their most recently created one. The sequence resets every
// calendar month; any prior number that does not match INV-{period}-NNN for
// the current period restarts the sequence at 001.
//
// The result is advisory only: the caller-submitted number on the actual
// create request wins, and the store never enforces uniqueness.
func NextInvoiceNumber(last string, now time.Time) string {
	period := PeriodToken(now)
	fallback := fmt.Sprintf("INV-%s-001", period)
	if last == "" {
		return fallback
	}

	parts := strings.Split(last, "-")
	if len(parts) != 3 || parts[0] != "INV" || parts[1] != period {
		return fallback
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return fallback
	}
	return fmt.Sprintf("INV-%s-%03d", period, seq+1)
}
