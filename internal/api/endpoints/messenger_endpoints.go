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
	"lumenhaus-backend/internal/service/messenger"
	"lumenhaus-backend/internal/websocket"

	"github.com/google/uuid"
)

type MessengerEndpoints interface {
	PublicChatMessages(http.ResponseWriter, *http.Request) error
	Conversations(http.ResponseWriter, *http.Request) error
	ConversationActions(http.ResponseWriter, *http.Request) error
	Badges(http.ResponseWriter, *http.Request) error
	ChatWebsocket(http.ResponseWriter, *http.Request) error
	InboxWebsocket(http.ResponseWriter, *http.Request) error
	Rooms(http.ResponseWriter, *http.Request) error
}

type MessengerPaths struct {
	PublicChatMessagesPath string
	ConversationsPath      string
	ConversationPrefix     string
	BadgesPath             string
	ChatWebsocketPrefix    string
	InboxWebsocketPath     string
}

type messengerEndpoints struct {
	service   *messenger.Service
	inquiries *inquiry.Service
	handler   *websocket.Handler
	paths     MessengerPaths
}

func NewMessengerEndpoints(service *messenger.Service, inquiries *inquiry.Service, handler *websocket.Handler, paths MessengerPaths) MessengerEndpoints {
	return &messengerEndpoints{
		service:   service,
		inquiries: inquiries,
		handler:   handler,
		paths:     paths,
	}
}

func (h *messengerEndpoints) PublicChatMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handlePostChatMessage,
		http.MethodGet:  h.handleListChatThread,
	})
}

func (h *messengerEndpoints) Conversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListConversations,
	})
}

func (h *messengerEndpoints) ConversationActions(w http.ResponseWriter, r *http.Request) error {
	_, action, err := h.extractConversationPath(r.URL.Path)
	if err != nil {
		return err
	}

	switch action {
	case "messages":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodGet:  h.handleGetConversation,
			http.MethodPost: h.handlePostOperatorMessage,
		})
	case "attachments":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: h.handlePostOperatorAttachment,
		})
	default:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("unknown conversation action: %s", action),
		}
	}
}

func (h *messengerEndpoints) Badges(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleBadges,
	})
}

func (h *messengerEndpoints) handlePostChatMessage(w http.ResponseWriter, r *http.Request) error {
	var req dto.PostChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode chat message request: %w", err),
		}
	}

	result, err := h.service.PostCorrespondentMessage(r.Context(), messenger.PostCorrespondentMessageParams{
		Channel: req.Channel,
		Contact: req.Email,
		Name:    req.Name,
		Body:    req.Body,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, dto.PostChatMessageResponse{
		Message:   toMessageResponse(result.Message),
		ChatToken: result.ChatToken,
	})
}

func (h *messengerEndpoints) handleListChatThread(w http.ResponseWriter, r *http.Request) error {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = strings.TrimSpace(r.Header.Get("X-Chat-Token"))
	}

	thread, err := h.service.ListCorrespondentThread(r.Context(), token)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ThreadResponse{Messages: make([]dto.MessageResponse, len(thread.Messages))}
	for i, msg := range thread.Messages {
		resp.Messages[i] = toMessageResponse(msg)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *messengerEndpoints) handleListConversations(w http.ResponseWriter, r *http.Request) error {
	conversations, err := h.service.ListConversations(r.Context(), r.URL.Query().Get("channel"))
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListConversationsResponse{Conversations: make([]dto.ConversationMetadata, len(conversations))}
	for i, conv := range conversations {
		resp.Conversations[i] = toConversationMetadata(conv)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *messengerEndpoints) handleGetConversation(w http.ResponseWriter, r *http.Request) error {
	correspondentID, _, err := h.extractConversationPath(r.URL.Path)
	if err != nil {
		return err
	}

	conv, err := h.service.GetConversation(r.Context(), r.URL.Query().Get("channel"), correspondentID)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ConversationResponse{
		Conversation: toConversationMetadata(conv),
		Messages:     make([]dto.MessageResponse, len(conv.Messages)),
	}
	for i, msg := range conv.Messages {
		resp.Messages[i] = toMessageResponse(msg)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *messengerEndpoints) handlePostOperatorMessage(w http.ResponseWriter, r *http.Request) error {
	correspondentID, _, err := h.extractConversationPath(r.URL.Path)
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

	var req dto.PostOperatorMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode operator message request: %w", err),
		}
	}

	msg, err := h.service.PostOperatorMessage(r.Context(), operator.Name, r.URL.Query().Get("channel"), correspondentID, req.Body)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *messengerEndpoints) handlePostOperatorAttachment(w http.ResponseWriter, r *http.Request) error {
	correspondentID, _, err := h.extractConversationPath(r.URL.Path)
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

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid upload payload",
			ErrorLog:   fmt.Errorf("parse attachment form: %w", err),
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Missing file",
			ErrorLog:   fmt.Errorf("read attachment file: %w", err),
		}
	}
	defer file.Close()

	msg, err := h.service.PostOperatorAttachment(
		r.Context(),
		operator.Name,
		r.URL.Query().Get("channel"),
		correspondentID,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *messengerEndpoints) handleBadges(w http.ResponseWriter, r *http.Request) error {
	badges, err := h.service.Badges(r.Context(), r.URL.Query().Get("channel"))
	if err != nil {
		return h.serviceError(err)
	}

	if h.inquiries != nil {
		counts, err := h.inquiries.PendingCounts(r.Context())
		if err != nil {
			return h.inquiryError(err)
		}
		for category, count := range counts {
			badges = badges.WithCategory(category, count)
		}
	}

	return api.WriteJSON(w, http.StatusOK, dto.BadgesResponse{
		TotalUnreadThreads: badges.TotalUnreadThreads,
		PerCategory:        badges.PerCategory,
		Total:              badges.Total(),
	})
}

// ChatWebsocket attaches a storefront widget to its conversation room. The
// chat token gates access; a path id is only accepted when it matches the
// token's correspondent.
func (h *messengerEndpoints) ChatWebsocket(w http.ResponseWriter, r *http.Request) error {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	access, err := h.service.ValidateChatAccess(token)
	if err != nil {
		return h.serviceError(err)
	}

	pathID := strings.Trim(strings.TrimPrefix(r.URL.Path, h.paths.ChatWebsocketPrefix), "/")
	if pathID != "" && pathID != access.CorrespondentID {
		return &HTTPError{
			StatusCode: http.StatusForbidden,
			Message:    "Token does not match conversation",
			ErrorLog:   fmt.Errorf("chat websocket mismatch: %s vs %s", pathID, access.CorrespondentID),
		}
	}

	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("chat websocket handler missing"),
		}
	}

	h.handler.JoinChatRoom(w, r, access.Channel, access.CorrespondentID, uuid.NewString())
	return nil
}

// InboxWebsocket opens an operator inbox session. The operator JWT comes in
// the token query parameter because browsers cannot set headers on websocket
// upgrades.
func (h *messengerEndpoints) InboxWebsocket(w http.ResponseWriter, r *http.Request) error {
	operator, err := middleware.OperatorFromRequest(r)
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("inbox websocket operator: %w", err),
		}
	}

	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("inbox websocket handler missing"),
		}
	}

	h.handler.ServeInbox(w, r, operator.Name)
	return nil
}

// Rooms lists the active widget rooms, for operator-side diagnostics.
func (h *messengerEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListRooms,
	})
}

func (h *messengerEndpoints) handleListRooms(w http.ResponseWriter, r *http.Request) error {
	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("rooms listing handler missing"),
		}
	}

	h.handler.GetRooms(w, r)
	return nil
}

func (h *messengerEndpoints) extractConversationPath(path string) (string, string, error) {
	prefix := h.paths.ConversationPrefix
	if prefix == "" {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("conversation routes not configured")}
	}
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("conversation path mismatch: %s", path)}
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Not found", ErrorLog: fmt.Errorf("invalid conversation path: %s", path)}
	}
	return parts[0], parts[1], nil
}

func (h *messengerEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*messenger.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("messenger service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case messenger.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case messenger.ErrorCodeUnauthorized:
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: svcErr.Message, ErrorLog: logErr}
	case messenger.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case messenger.ErrorCodeNoSelection:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	case messenger.ErrorCodeAppendRejected, messenger.ErrorCodeUploadFailed:
		return &HTTPError{StatusCode: http.StatusBadGateway, Message: svcErr.Message, ErrorLog: logErr}
	case messenger.ErrorCodeSubscriptionLost:
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}

func (h *messengerEndpoints) inquiryError(err error) error {
	if err == nil {
		return nil
	}
	return mapInquiryError(err)
}

func toMessageResponse(item model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		MessageID:     item.MessageID,
		AuthorName:    item.AuthorName,
		FromOperator:  item.FromOperator,
		Body:          item.Body,
		AttachmentURL: item.AttachmentURL,
		CreatedAt:     item.CreatedAt,
	}
}

func toConversationMetadata(conv messenger.Conversation) dto.ConversationMetadata {
	lastMessageAt := ""
	if len(conv.Messages) > 0 {
		lastMessageAt = conv.Messages[len(conv.Messages)-1].CreatedAt
	}

	return dto.ConversationMetadata{
		ID:                 conv.ID,
		DisplayName:        conv.DisplayName,
		HasUnread:          conv.HasUnread,
		LastMessagePreview: conv.LastMessagePreview,
		LastMessageAt:      lastMessageAt,
		MessageCount:       len(conv.Messages),
	}
}
