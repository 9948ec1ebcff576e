package router

import (
	"net/http"
	"strings"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/api/endpoints"
	"lumenhaus-backend/internal/api/middleware"
)

// StorefrontChatRoutes serves the public widget API: posting a message and
// reading back the caller's own thread via the chat token.
func StorefrontChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		paths := endpoints.MessengerPaths{
			PublicChatMessagesPath: strings.TrimRight(prefix, "/") + "/chat/messages",
		}
		msgEndpoints := endpoints.NewMessengerEndpoints(s.Messenger(), nil, s.Handler(), paths)

		mux.HandleFunc(prefix+"/chat/messages", s.MakeHTTPHandleFunc(msgEndpoints.PublicChatMessages))
	}
}

// InboxRoutes serves the admin console REST API behind the operator JWT.
func InboxRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		paths := endpoints.MessengerPaths{
			ConversationsPath:  base + "/inbox/conversations",
			ConversationPrefix: base + "/inbox/conversations/",
			BadgesPath:         base + "/inbox/badges",
		}
		msgEndpoints := endpoints.NewMessengerEndpoints(s.Messenger(), s.Inquiries(), s.Handler(), paths)

		mux.HandleFunc(prefix+"/inbox/conversations", s.MakeHTTPHandleFunc(msgEndpoints.Conversations, middleware.ValidateOperatorJWT))
		mux.HandleFunc(prefix+"/inbox/conversations/", s.MakeHTTPHandleFunc(msgEndpoints.ConversationActions, middleware.ValidateOperatorJWT))
		mux.HandleFunc(prefix+"/inbox/badges", s.MakeHTTPHandleFunc(msgEndpoints.Badges, middleware.ValidateOperatorJWT))
	}
}

// MessengerWebsocketRoutes serves both live surfaces: the widget room stream
// and the operator inbox session. Authentication happens inside the endpoints
// because upgrade requests carry their credentials in the query string.
func MessengerWebsocketRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		paths := endpoints.MessengerPaths{
			ChatWebsocketPrefix: base + "/chat/",
			InboxWebsocketPath:  base + "/inbox",
		}
		msgEndpoints := endpoints.NewMessengerEndpoints(s.Messenger(), s.Inquiries(), s.Handler(), paths)

		mux.HandleFunc(prefix+"/chat/", s.MakeHTTPHandleFunc(msgEndpoints.ChatWebsocket))
		mux.HandleFunc(prefix+"/inbox", s.MakeHTTPHandleFunc(msgEndpoints.InboxWebsocket))
		mux.HandleFunc(prefix+"/rooms", s.MakeHTTPHandleFunc(msgEndpoints.Rooms, middleware.ValidateOperatorJWT))
	}
}
