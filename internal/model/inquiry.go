package model

type InquiryStatus string

const (
	InquiryStatusPending InquiryStatus = "pending"
	InquiryStatusHandled InquiryStatus = "handled"
)

type InquiryCategory string

const (
	InquiryCategoryQuote       InquiryCategory = "quote"
	InquiryCategoryContact     InquiryCategory = "contact"
	InquiryCategoryApplication InquiryCategory = "application"
)

// InquiryTableFor maps a category to its backing table. Each category keeps
// its own table so the admin console lists stay cheap to query.
func InquiryTableFor(category InquiryCategory) (string, bool) {
	switch category {
	case InquiryCategoryQuote:
		return QuoteInquiriesTable, true
	case InquiryCategoryContact:
		return CustomerInquiriesTable, true
	case InquiryCategoryApplication:
		return JobApplicationsTable, true
	}
	return "", false
}

type InquiryItem struct {
	InquiryID string            `dynamodbav:"inquiryId"`
	Category  InquiryCategory   `dynamodbav:"category"`
	Name      string            `dynamodbav:"name"`
	Email     string            `dynamodbav:"email"`
	Subject   string            `dynamodbav:"subject,omitempty"`
	Body      string            `dynamodbav:"body"`
	Metadata  map[string]string `dynamodbav:"metadata,omitempty"`
	Status    InquiryStatus     `dynamodbav:"status"`
	CreatedAt string            `dynamodbav:"createdAt"`
	HandledAt string            `dynamodbav:"handledAt,omitempty"`
	HandledBy string            `dynamodbav:"handledBy,omitempty"`
}
