package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"invoiceflow-backend/config"
	"invoiceflow-backend/models"
	"invoiceflow-backend/routes"
	"invoiceflow-backend/services"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func performForm(r http.Handler, method, path string, form url.Values, token string) *httptest.ResponseRecorder {
	return performRequest(r, method, path, strings.NewReader(form.Encode()), token, "application/x-www-form-urlencoded")
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_URL to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	if os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", "integration-test-secret")
	}
	db := config.ConnectDB()
	if err := db.AutoMigrate(&models.User{}, &models.Customer{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return routes.SetupRouter(db, services.NewPDFRenderer(), services.NewSMTPMailerFromEnv())
}

func registerAndLogin(t *testing.T, r *gin.Engine, tag string) string {
	t.Helper()
	suffix := fmt.Sprintf("%s%d", tag, time.Now().UnixNano())
	email := fmt.Sprintf("u%s@example.com", suffix)

	regBody, _ := json.Marshal(map[string]string{
		"username":     "user" + suffix,
		"email":        email,
		"password":     "password123",
		"businessName": "Acme " + tag,
	})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	loginBody, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func createCustomer(t *testing.T, r *gin.Engine, token, name string) uint {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "email": "billing@example.com"})
	resp := performRequest(r, http.MethodPost, "/customers", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create customer failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var customer map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &customer)
	id, _ := customer["id"].(float64)
	if id == 0 {
		t.Fatalf("missing customer id in response: %+v", customer)
	}
	return uint(id)
}

func invoiceForm(customerID uint, number string) url.Values {
	return url.Values{
		"invoice_number": {number},
		"date_issued":    {"2025-06-01"},
		"date_due":       {"2025-07-01"},
		"customer_id":    {fmt.Sprintf("%d", customerID)},
		"tax_rate":       {"10"},
		"status":         {"Unpaid"},
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "a")
	customerID := createCustomer(t, r, token, "Lifecycle Customer")

	// First suggestion for a fresh tenant is sequence 001
	resp := performRequest(r, http.MethodGet, "/create_invoice", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("invoice form failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var suggestion map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &suggestion)
	period := time.Now().Format("200601")
	if suggestion["invoiceNumber"] != "INV-"+period+"-001" {
		t.Fatalf("expected first suggestion INV-%s-001, got %v", period, suggestion["invoiceNumber"])
	}

	// Create with 3 items
	form := invoiceForm(customerID, "INV-"+period+"-001")
	for i, desc := range []string{"Design", "Build", "Deploy"} {
		idx := fmt.Sprintf("%d", i)
		form.Set("items-"+idx+"-description", desc)
		form.Set("items-"+idx+"-quantity", "1")
		form.Set("items-"+idx+"-unit_price", "100")
		form.Set("items-"+idx+"-amount", "100")
	}
	resp = performForm(r, http.MethodPost, "/create_invoice", form, token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create invoice failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created models.Invoice
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if len(created.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(created.Items))
	}
	if created.Subtotal != 300 || created.TaxAmount != 30 || created.Total != 330 {
		t.Fatalf("unexpected totals: %+v", created)
	}
	originalItemIDs := map[uint]bool{}
	for _, item := range created.Items {
		originalItemIDs[item.ID] = true
	}

	// Suggestion now increments within the period
	resp = performRequest(r, http.MethodGet, "/create_invoice", nil, token, "")
	_ = json.Unmarshal(resp.Body.Bytes(), &suggestion)
	if suggestion["invoiceNumber"] != "INV-"+period+"-002" {
		t.Fatalf("expected next suggestion INV-%s-002, got %v", period, suggestion["invoiceNumber"])
	}

	invoicePath := fmt.Sprintf("/invoice/%d", created.ID)

	// Edit with 2 items: the whole item set is replaced
	edit := invoiceForm(customerID, created.InvoiceNumber)
	for i, desc := range []string{"Design", "Build"} {
		idx := fmt.Sprintf("%d", i)
		edit.Set("items-"+idx+"-description", desc)
		edit.Set("items-"+idx+"-quantity", "1")
		edit.Set("items-"+idx+"-unit_price", "100")
		edit.Set("items-"+idx+"-amount", "100")
	}
	resp = performForm(r, http.MethodPost, invoicePath+"/edit", edit, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("edit invoice failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, invoicePath, nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get invoice failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var edited models.Invoice
	_ = json.Unmarshal(resp.Body.Bytes(), &edited)
	if len(edited.Items) != 2 {
		t.Fatalf("expected exactly 2 items after edit, got %d", len(edited.Items))
	}
	for _, item := range edited.Items {
		if originalItemIDs[item.ID] {
			t.Fatalf("item id %d survived the wholesale replacement", item.ID)
		}
	}
	if edited.Subtotal != 200 {
		t.Fatalf("expected recomputed subtotal 200, got %v", edited.Subtotal)
	}

	// Deleting the customer is refused while the invoice exists
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/customer/%d/delete", customerID), nil, token, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("customer delete should be refused, got status=%d body=%s", resp.Code, resp.Body.String())
	}

	// PDF download
	resp = performRequest(r, http.MethodGet, invoicePath+"/pdf", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("pdf download failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "Invoice-"+created.InvoiceNumber+".pdf") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	// Delete invoice, then the customer delete succeeds
	resp = performRequest(r, http.MethodPost, invoicePath+"/delete", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete invoice failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/customer/%d/delete", customerID), nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("customer delete should succeed after invoice removal, got status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestTenantIsolation(t *testing.T) {
	r := setupTestServer(t)
	ownerToken := registerAndLogin(t, r, "owner")
	intruderToken := registerAndLogin(t, r, "intruder")

	customerID := createCustomer(t, r, ownerToken, "Isolated Customer")

	form := invoiceForm(customerID, "INV-"+time.Now().Format("200601")+"-001")
	form.Set("items-0-description", "Work")
	form.Set("items-0-quantity", "1")
	form.Set("items-0-unit_price", "50")
	form.Set("items-0-amount", "50")
	resp := performForm(r, http.MethodPost, "/create_invoice", form, ownerToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create invoice failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created models.Invoice
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	invoicePath := fmt.Sprintf("/invoice/%d", created.ID)

	// Knowing the id is not enough: view, edit and delete all read as not found
	for _, probe := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, invoicePath},
		{http.MethodPost, invoicePath + "/delete"},
		{http.MethodGet, invoicePath + "/pdf"},
	} {
		resp = performRequest(r, probe.method, probe.path, nil, intruderToken, "")
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404 for foreign tenant, got %d", probe.method, probe.path, resp.Code)
		}
	}

	edit := invoiceForm(customerID, created.InvoiceNumber)
	edit.Set("items-0-description", "Hijacked")
	resp = performForm(r, http.MethodPost, invoicePath+"/edit", edit, intruderToken)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusBadRequest {
		t.Fatalf("foreign edit should be denied, got %d", resp.Code)
	}

	// An intruder cannot bill against someone else's customer either
	foreign := invoiceForm(customerID, "INV-hijack-001")
	foreign.Set("items-0-description", "Work")
	resp = performForm(r, http.MethodPost, "/create_invoice", foreign, intruderToken)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected customer ownership rejection, got %d body=%s", resp.Code, resp.Body.String())
	}

	// The owner still sees the invoice untouched
	resp = performRequest(r, http.MethodGet, invoicePath, nil, ownerToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("owner lost access to own invoice: %d", resp.Code)
	}
}

func TestInvalidSubmissions(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "v")
	customerID := createCustomer(t, r, token, "Validation Customer")

	// Non-numeric quantity on a surviving row fails the whole create
	bad := invoiceForm(customerID, "INV-bad-001")
	bad.Set("items-0-description", "X")
	bad.Set("items-0-quantity", "abc")
	resp := performForm(r, http.MethodPost, "/create_invoice", bad, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric quantity, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "items-0-quantity") {
		t.Fatalf("error should name the field, body=%s", resp.Body.String())
	}

	// Unknown status is rejected by the store
	badStatus := invoiceForm(customerID, "INV-bad-002")
	badStatus.Set("status", "paid")
	resp = performForm(r, http.MethodPost, "/create_invoice", badStatus, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for lowercase status, got %d", resp.Code)
	}

	// Caller-supplied totals diverging from the items are rejected
	mismatch := invoiceForm(customerID, "INV-bad-003")
	mismatch.Set("items-0-description", "Widget")
	mismatch.Set("items-0-quantity", "2")
	mismatch.Set("items-0-unit_price", "10")
	mismatch.Set("items-0-amount", "20")
	mismatch.Set("subtotal", "999")
	resp = performForm(r, http.MethodPost, "/create_invoice", mismatch, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for total mismatch, got %d", resp.Code)
	}

	// Nothing was persisted by any of the failed submissions
	resp = performRequest(r, http.MethodGet, "/invoices", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list invoices failed: %d", resp.Code)
	}
	var invoices []models.Invoice
	_ = json.Unmarshal(resp.Body.Bytes(), &invoices)
	if len(invoices) != 0 {
		t.Fatalf("failed submissions must persist nothing, found %d invoices", len(invoices))
	}
}
