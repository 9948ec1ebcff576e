package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/api/middleware"
	"lumenhaus-backend/internal/dto"
	"lumenhaus-backend/internal/model"
	"lumenhaus-backend/internal/service/inquiry"
)

type InquiryEndpoints interface {
	PublicQuoteRequests(http.ResponseWriter, *http.Request) error
	PublicContactInquiries(http.ResponseWriter, *http.Request) error
	PublicJobApplications(http.ResponseWriter, *http.Request) error
	Inquiries(http.ResponseWriter, *http.Request) error
	InquiryActions(http.ResponseWriter, *http.Request) error
}

type InquiryPaths struct {
	InquiriesPath string
	InquiryPrefix string
}

type inquiryEndpoints struct {
	service *inquiry.Service
	paths   InquiryPaths
}

func NewInquiryEndpoints(service *inquiry.Service, paths InquiryPaths) InquiryEndpoints {
	return &inquiryEndpoints{
		service: service,
		paths:   paths,
	}
}

func (h *inquiryEndpoints) PublicQuoteRequests(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSubmitQuote,
	})
}

func (h *inquiryEndpoints) PublicContactInquiries(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSubmitContact,
	})
}

func (h *inquiryEndpoints) PublicJobApplications(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSubmitApplication,
	})
}

func (h *inquiryEndpoints) Inquiries(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListInquiries,
	})
}

func (h *inquiryEndpoints) InquiryActions(w http.ResponseWriter, r *http.Request) error {
	_, action, err := h.extractInquiryPath(r.URL.Path)
	if err != nil {
		return err
	}

	switch action {
	case "handle":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: h.handleMarkHandled,
		})
	default:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("unknown inquiry action: %s", action),
		}
	}
}

func (h *inquiryEndpoints) handleSubmitQuote(w http.ResponseWriter, r *http.Request) error {
	var req dto.QuoteRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return invalidPayload("decode quote request", err)
	}

	item, err := h.service.SubmitQuoteRequest(r.Context(), inquiry.QuoteRequestParams{
		Name:       req.Name,
		Email:      req.Email,
		ProductSKU: req.ProductSKU,
		Quantity:   req.Quantity,
		Body:       req.Body,
	})
	if err != nil {
		return mapInquiryError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, toInquiryResponse(item))
}

func (h *inquiryEndpoints) handleSubmitContact(w http.ResponseWriter, r *http.Request) error {
	var req dto.ContactInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return invalidPayload("decode contact inquiry", err)
	}

	item, err := h.service.SubmitContactInquiry(r.Context(), inquiry.ContactParams{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		return mapInquiryError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, toInquiryResponse(item))
}

func (h *inquiryEndpoints) handleSubmitApplication(w http.ResponseWriter, r *http.Request) error {
	var req dto.JobApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return invalidPayload("decode job application", err)
	}

	item, err := h.service.SubmitJobApplication(r.Context(), inquiry.ApplicationParams{
		Name:      req.Name,
		Email:     req.Email,
		Position:  req.Position,
		ResumeURL: req.ResumeURL,
		Body:      req.Body,
	})
	if err != nil {
		return mapInquiryError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, toInquiryResponse(item))
}

func (h *inquiryEndpoints) handleListInquiries(w http.ResponseWriter, r *http.Request) error {
	category := model.InquiryCategory(strings.TrimSpace(r.URL.Query().Get("category")))
	if category == "" {
		category = model.InquiryCategoryContact
	}
	status := model.InquiryStatus(strings.TrimSpace(r.URL.Query().Get("status")))

	items, err := h.service.ListInquiries(r.Context(), category, status)
	if err != nil {
		return mapInquiryError(err)
	}

	resp := dto.ListInquiriesResponse{Inquiries: make([]dto.InquiryResponse, len(items))}
	for i, item := range items {
		resp.Inquiries[i] = toInquiryResponse(item)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *inquiryEndpoints) handleMarkHandled(w http.ResponseWriter, r *http.Request) error {
	inquiryID, _, err := h.extractInquiryPath(r.URL.Path)
	if err != nil {
		return err
	}

	operator, err := middleware.OperatorFromRequest(r)
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("resolve operator: %w", err),
		}
	}

	category := model.InquiryCategory(strings.TrimSpace(r.URL.Query().Get("category")))

	item, err := h.service.MarkHandled(r.Context(), category, inquiryID, operator.Name)
	if err != nil {
		return mapInquiryError(err)
	}

	return api.WriteJSON(w, http.StatusOK, toInquiryResponse(item))
}

func (h *inquiryEndpoints) extractInquiryPath(path string) (string, string, error) {
	prefix := h.paths.InquiryPrefix
	if prefix == "" {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("inquiry routes not configured")}
	}
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("inquiry path mismatch: %s", path)}
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("invalid inquiry path: %s", path)}
	}
	return parts[0], parts[1], nil
}

func invalidPayload(context string, err error) error {
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid request payload",
		ErrorLog:   fmt.Errorf("%s: %w", context, err),
	}
}

func mapInquiryError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*inquiry.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("inquiry service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case inquiry.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case inquiry.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case inquiry.ErrorCodeConflict:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}

func toInquiryResponse(item model.InquiryItem) dto.InquiryResponse {
	return dto.InquiryResponse{
		InquiryID: item.InquiryID,
		Category:  string(item.Category),
		Name:      item.Name,
		Email:     item.Email,
		Subject:   item.Subject,
		Body:      item.Body,
		Metadata:  item.Metadata,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt,
		HandledAt: item.HandledAt,
		HandledBy: item.HandledBy,
	}
}
