package inquiry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumenhaus-backend/internal/database"
	"lumenhaus-backend/internal/model"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeConflict   ErrorCode = "conflict"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Service handles storefront inquiry forms (quote requests, contact messages,
// job applications) and the admin-side handling flow. Pending counts per
// category feed the navigation badges next to the chat badge.
type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.DynamoDBClient) *Service {
	return NewWithRepository(NewDynamoRepository(db))
}

func NewWithRepository(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type QuoteRequestParams struct {
	Name       string
	Email      string
	ProductSKU string
	Quantity   string
	Body       string
}

type ContactParams struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

type ApplicationParams struct {
	Name      string
	Email     string
	Position  string
	ResumeURL string
	Body      string
}

func (s *Service) SubmitQuoteRequest(ctx context.Context, params QuoteRequestParams) (model.InquiryItem, error) {
	metadata := map[string]string{}
	if sku := strings.TrimSpace(params.ProductSKU); sku != "" {
		metadata["productSku"] = sku
	}
	if qty := strings.TrimSpace(params.Quantity); qty != "" {
		metadata["quantity"] = qty
	}

	return s.submit(ctx, model.InquiryCategoryQuote, params.Name, params.Email, "", params.Body, metadata)
}

func (s *Service) SubmitContactInquiry(ctx context.Context, params ContactParams) (model.InquiryItem, error) {
	return s.submit(ctx, model.InquiryCategoryContact, params.Name, params.Email, params.Subject, params.Body, nil)
}

func (s *Service) SubmitJobApplication(ctx context.Context, params ApplicationParams) (model.InquiryItem, error) {
	position := strings.TrimSpace(params.Position)
	if position == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "position is required", nil)
	}

	metadata := map[string]string{"position": position}
	if resume := strings.TrimSpace(params.ResumeURL); resume != "" {
		metadata["resumeUrl"] = resume
	}

	return s.submit(ctx, model.InquiryCategoryApplication, params.Name, params.Email, "", params.Body, metadata)
}

func (s *Service) submit(ctx context.Context, category model.InquiryCategory, name, email, subject, body string, metadata map[string]string) (model.InquiryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "name is required", nil)
	}

	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "a valid email address is required", nil)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "message body is required", nil)
	}

	item := model.InquiryItem{
		InquiryID: uuid.NewString(),
		Category:  category,
		Name:      name,
		Email:     email,
		Subject:   strings.TrimSpace(subject),
		Body:      body,
		Metadata:  cloneStringMap(metadata),
		Status:    model.InquiryStatusPending,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return model.InquiryItem{}, newError(ErrorCodeInternal, "failed to store inquiry", err)
	}
	return item, nil
}

func (s *Service) ListInquiries(ctx context.Context, category model.InquiryCategory, status model.InquiryStatus) ([]model.InquiryItem, error) {
	if _, ok := model.InquiryTableFor(category); !ok {
		return nil, newError(ErrorCodeValidation, "unknown inquiry category", nil)
	}
	switch status {
	case "", model.InquiryStatusPending, model.InquiryStatusHandled:
	default:
		return nil, newError(ErrorCodeValidation, "unknown inquiry status", nil)
	}

	items, err := s.repo.List(ctx, category, status)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list inquiries", err)
	}
	return items, nil
}

// MarkHandled closes out a pending inquiry. Handling twice is a conflict so
// two operators working the same queue notice the overlap.
func (s *Service) MarkHandled(ctx context.Context, category model.InquiryCategory, inquiryID, operatorName string) (model.InquiryItem, error) {
	if _, ok := model.InquiryTableFor(category); !ok {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "unknown inquiry category", nil)
	}

	inquiryID = strings.TrimSpace(inquiryID)
	if inquiryID == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "inquiry id is required", nil)
	}

	operatorName = strings.TrimSpace(operatorName)
	if operatorName == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "operator name is required", nil)
	}

	existing, err := s.repo.Get(ctx, category, inquiryID)
	if err != nil {
		if isNotFound(err) {
			return model.InquiryItem{}, newError(ErrorCodeNotFound, "inquiry not found", err)
		}
		return model.InquiryItem{}, newError(ErrorCodeInternal, "failed to load inquiry", err)
	}
	if existing.Status == model.InquiryStatusHandled {
		return model.InquiryItem{}, newError(ErrorCodeConflict, "inquiry already handled", nil)
	}

	handledAt := s.now().UTC().Format(time.RFC3339Nano)
	updated, err := s.repo.MarkHandled(ctx, category, inquiryID, operatorName, handledAt)
	if err != nil {
		return model.InquiryItem{}, newError(ErrorCodeInternal, "failed to mark inquiry handled", err)
	}
	return updated, nil
}

// PendingCounts returns the pending inquiry count per category, keyed by the
// category name, for merging into the badge payload.
func (s *Service) PendingCounts(ctx context.Context) (map[string]int, error) {
	categories := []model.InquiryCategory{
		model.InquiryCategoryQuote,
		model.InquiryCategoryContact,
		model.InquiryCategoryApplication,
	}

	counts := make(map[string]int, len(categories))
	for _, category := range categories {
		count, err := s.repo.CountPending(ctx, category)
		if err != nil {
			return nil, newError(ErrorCodeInternal, "failed to count pending inquiries", err)
		}
		counts[string(category)] = count
	}
	return counts, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".")
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
