package services

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValidationError marks user-correctable input problems. The whole create or
// edit submission is aborted when one is returned; nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// LineItem is one validated row of an invoice submission. Amount is
// caller-supplied and stored as-is; only the aggregate totals are recomputed.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

// InvoiceForm holds the validated header fields of a create/edit submission.
// Subtotal, TaxAmount and Total are nil when the caller did not send them.
type InvoiceForm struct {
	InvoiceNumber string
	DateIssued    time.Time
	DateDue       time.Time
	CustomerID    uint
	TaxRate       float64
	Notes         string
	Status        string

	Subtotal  *float64
	TaxAmount *float64
	Total     *float64
}

// Totals are the server-side derived amounts for an item set.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

const dateLayout = "2006-01-02"

// totalsTolerance is the largest divergence accepted between caller-supplied
// and recomputed amounts.
const totalsTolerance = 0.01

// ParseLineItems converts the sparse items-<index>-* form fields into an
// ordered slice of validated line items.
//
// A row exists only if its description field was submitted; rows whose
// trimmed description is empty are dropped. Indices need not be numeric or
// contiguous. Ordering is deterministic: numeric indices ascending first,
// then the rest lexicographically.
func ParseLineItems(form url.Values) ([]LineItem, error) {
	indexSet := map[string]bool{}
	for key := range form {
		parts := strings.Split(key, "-")
		if len(parts) == 3 && parts[0] == "items" && parts[2] == "description" {
			indexSet[parts[1]] = true
		}
	}

	indices := make([]string, 0, len(indexSet))
	for idx := range indexSet {
		indices = append(indices, idx)
	}
	sortIndices(indices)

	var items []LineItem
	for _, idx := range indices {
		description := form.Get(fmt.Sprintf("items-%s-description", idx))
		if strings.TrimSpace(description) == "" {
			continue
		}

		quantity, err := parseItemFloat(form, idx, "quantity")
		if err != nil {
			return nil, err
		}
		unitPrice, err := parseItemFloat(form, idx, "unit_price")
		if err != nil {
			return nil, err
		}
		amount, err := parseItemFloat(form, idx, "amount")
		if err != nil {
			return nil, err
		}

		items = append(items, LineItem{
			Description: description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      amount,
		})
	}

	return items, nil
}

func parseItemFloat(form url.Values, idx, name string) (float64, error) {
	field := fmt.Sprintf("items-%s-%s", idx, name)
	raw := form.Get(field)
	if raw == "" {
		raw = "0"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

// sortIndices orders numeric tokens ascending before non-numeric ones, which
// are ordered lexicographically. Browsers emit 0,1,2,... so in practice this
// is submission order.
func sortIndices(indices []string) {
	sort.Slice(indices, func(i, j int) bool {
		iv, ierr := strconv.Atoi(indices[i])
		jv, jerr := strconv.Atoi(indices[j])
		switch {
		case ierr == nil && jerr == nil:
			return iv < jv
		case ierr == nil:
			return true
		case jerr == nil:
			return false
		default:
			return indices[i] < indices[j]
		}
	})
}

// ParseInvoiceForm validates the header fields of an invoice submission.
func ParseInvoiceForm(form url.Values) (*InvoiceForm, error) {
	invoiceNumber := strings.TrimSpace(form.Get("invoice_number"))
	if invoiceNumber == "" {
		return nil, &ValidationError{Field: "invoice_number", Reason: "is required"}
	}

	dateIssued, err := parseRequiredDate(form, "date_issued")
	if err != nil {
		return nil, err
	}
	dateDue, err := parseRequiredDate(form, "date_due")
	if err != nil {
		return nil, err
	}
	if dateDue.Before(dateIssued) {
		return nil, &ValidationError{Field: "date_due", Reason: "must not precede date_issued"}
	}

	customerRaw := form.Get("customer_id")
	if customerRaw == "" {
		return nil, &ValidationError{Field: "customer_id", Reason: "is required"}
	}
	customerID, err := strconv.ParseUint(customerRaw, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "customer_id", Reason: "must be an integer"}
	}

	taxRate, err := parseOptionalFloat(form, "tax_rate")
	if err != nil {
		return nil, err
	}
	if taxRate != nil && *taxRate < 0 {
		return nil, &ValidationError{Field: "tax_rate", Reason: "must not be negative"}
	}

	status := form.Get("status")
	if status == "" {
		status = "Unpaid"
	}

	subtotal, err := parseOptionalFloat(form, "subtotal")
	if err != nil {
		return nil, err
	}
	taxAmount, err := parseOptionalFloat(form, "tax_amount")
	if err != nil {
		return nil, err
	}
	total, err := parseOptionalFloat(form, "total")
	if err != nil {
		return nil, err
	}

	parsed := &InvoiceForm{
		InvoiceNumber: invoiceNumber,
		DateIssued:    dateIssued,
		DateDue:       dateDue,
		CustomerID:    uint(customerID),
		Notes:         form.Get("notes"),
		Status:        status,
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		Total:         total,
	}
	if taxRate != nil {
		parsed.TaxRate = *taxRate
	}
	return parsed, nil
}

func parseRequiredDate(form url.Values, field string) (time.Time, error) {
	raw := form.Get(field)
	if raw == "" {
		return time.Time{}, &ValidationError{Field: field, Reason: "is required"}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func parseOptionalFloat(form url.Values, field string) (*float64, error) {
	raw := form.Get(field)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return &v, nil
}

// ComputeTotals derives the invoice amounts from its items. The subtotal is
// the sum of caller-supplied item amounts.
func ComputeTotals(items []LineItem, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Amount
	}
	taxAmount := subtotal * taxRate / 100
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal + taxAmount,
	}
}

// VerifyTotals compares any caller-supplied totals against the recomputed
// ones. Divergence beyond the tolerance rejects the submission; the stored
// values are always the recomputed ones.
func (f *InvoiceForm) VerifyTotals(t Totals) error {
	if f.Subtotal != nil && math.Abs(*f.Subtotal-t.Subtotal) > totalsTolerance {
		return &ValidationError{Field: "subtotal", Reason: "does not match the sum of item amounts"}
	}
	if f.TaxAmount != nil && math.Abs(*f.TaxAmount-t.TaxAmount) > totalsTolerance {
		return &ValidationError{Field: "tax_amount", Reason: "does not match the computed tax"}
	}
	if f.Total != nil && math.Abs(*f.Total-t.Total) > totalsTolerance {
		return &ValidationError{Field: "total", Reason: "does not match the computed total"}
	}
	return nil
}
