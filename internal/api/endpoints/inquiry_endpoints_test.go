package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumenhaus-backend/internal/dto"
	"lumenhaus-backend/internal/service/inquiry"
)

func newTestInquiryEndpoints(repo *memoryInquiryRepository) InquiryEndpoints {
	return NewInquiryEndpoints(inquiry.NewWithRepository(repo), InquiryPaths{
		InquiriesPath: "/api/admin/v1/inquiries",
		InquiryPrefix: "/api/admin/v1/inquiries/",
	})
}

func TestSubmitQuoteRequestEndpoint(t *testing.T) {
	repo := newMemoryInquiryRepository()
	h := newTestInquiryEndpoints(repo)

	body, _ := json.Marshal(dto.QuoteRequestRequest{
		Name:       "Anna",
		Email:      "  Anna@Example.com ",
		ProductSKU: "LH-OSLO-01",
		Quantity:   "12",
		Body:       "pricing for a restaurant fit-out",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/inquiries/quote", bytes.NewReader(body))

	if err := h.PublicQuoteRequests(rec, req); err != nil {
		t.Fatalf("PublicQuoteRequests error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp dto.InquiryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode inquiry: %v", err)
	}
	if resp.Email != "anna@example.com" || resp.Status != "pending" {
		t.Fatalf("unexpected inquiry: %+v", resp)
	}
	if resp.Metadata["productSku"] != "LH-OSLO-01" {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
}

func TestSubmitContactValidationEndpoint(t *testing.T) {
	repo := newMemoryInquiryRepository()
	h := newTestInquiryEndpoints(repo)

	body, _ := json.Marshal(dto.ContactInquiryRequest{
		Name:  "Ben",
		Email: "not-an-address",
		Body:  "hello",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/inquiries/contact", bytes.NewReader(body))

	err := h.PublicContactInquiries(rec, req)
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestMarkHandledEndpoint(t *testing.T) {
	repo := newMemoryInquiryRepository()
	service := inquiry.NewWithRepository(repo)
	h := newTestInquiryEndpoints(repo)

	item, err := service.SubmitContactInquiry(httptest.NewRequest(http.MethodGet, "/", nil).Context(), inquiry.ContactParams{
		Name:  "Ben",
		Email: "ben@example.com",
		Body:  "showroom opening hours",
	})
	if err != nil {
		t.Fatalf("SubmitContactInquiry error: %v", err)
	}

	path := "/api/admin/v1/inquiries/" + item.InquiryID + "/handle?category=contact"
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, "Marta"))

	if err := h.InquiryActions(rec, req); err != nil {
		t.Fatalf("InquiryActions error: %v", err)
	}

	var resp dto.InquiryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode inquiry: %v", err)
	}
	if resp.Status != "handled" || resp.HandledBy != "Marta" {
		t.Fatalf("unexpected inquiry: %+v", resp)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, "Marta"))

	err = h.InquiryActions(rec, req)
	if status := statusOf(t, err); status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
}

func TestMarkHandledRequiresOperator(t *testing.T) {
	repo := newMemoryInquiryRepository()
	h := newTestInquiryEndpoints(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/inquiries/unknown/handle?category=contact", nil)

	err := h.InquiryActions(rec, req)
	if status := statusOf(t, err); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestListInquiriesRejectsUnknownCategory(t *testing.T) {
	repo := newMemoryInquiryRepository()
	h := newTestInquiryEndpoints(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/inquiries?category=spam", nil)

	err := h.Inquiries(rec, req)
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
