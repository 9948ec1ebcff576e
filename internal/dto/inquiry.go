package dto

type QuoteRequestRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProductSKU string `json:"productSku,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	Body       string `json:"body"`
}

type ContactInquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

type JobApplicationRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Position  string `json:"position"`
	ResumeURL string `json:"resumeUrl,omitempty"`
	Body      string `json:"body"`
}

type InquiryResponse struct {
	InquiryID string            `json:"inquiryId"`
	Category  string            `json:"category"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Subject   string            `json:"subject,omitempty"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"createdAt"`
	HandledAt string            `json:"handledAt,omitempty"`
	HandledBy string            `json:"handledBy,omitempty"`
}

type ListInquiriesResponse struct {
	Inquiries []InquiryResponse `json:"inquiries"`
}
