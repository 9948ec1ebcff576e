package router

import (
	"net/http"
	"strings"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/api/endpoints"
	"lumenhaus-backend/internal/api/middleware"
)

// InquiryPublicRoutes serves the storefront forms: quote requests, contact
// messages and job applications.
func InquiryPublicRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		inqEndpoints := endpoints.NewInquiryEndpoints(s.Inquiries(), endpoints.InquiryPaths{})

		mux.HandleFunc(prefix+"/inquiries/quote", s.MakeHTTPHandleFunc(inqEndpoints.PublicQuoteRequests))
		mux.HandleFunc(prefix+"/inquiries/contact", s.MakeHTTPHandleFunc(inqEndpoints.PublicContactInquiries))
		mux.HandleFunc(prefix+"/inquiries/job", s.MakeHTTPHandleFunc(inqEndpoints.PublicJobApplications))
	}
}

// InquiryAdminRoutes serves the admin console inquiry queues.
func InquiryAdminRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		inqEndpoints := endpoints.NewInquiryEndpoints(s.Inquiries(), endpoints.InquiryPaths{
			InquiriesPath: base + "/inquiries",
			InquiryPrefix: base + "/inquiries/",
		})

		mux.HandleFunc(prefix+"/inquiries", s.MakeHTTPHandleFunc(inqEndpoints.Inquiries, middleware.ValidateOperatorJWT))
		mux.HandleFunc(prefix+"/inquiries/", s.MakeHTTPHandleFunc(inqEndpoints.InquiryActions, middleware.ValidateOperatorJWT))
	}
}
