package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"github.com/shinyyama/marketplace-inbox/internal/service"
)

type ConversationHandler struct {
	svc    service.ConversationService
	logger *slog.Logger
}

func NewConversationHandler(svc service.ConversationService, logger *slog.Logger) *ConversationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationHandler{svc: svc, logger: logger}
}

type ConversationResponse struct {
	PartnerUID           string  `json:"partnerUid"`
	PartnerDisplayName   string  `json:"partnerDisplayName"`
	PartnerAvatarURL     *string `json:"partnerAvatarUrl"`
	LastMessageID        uint64  `json:"lastMessageId"`
	LastMessageText      string  `json:"lastMessageText"`
	LastMessageAt        string  `json:"lastMessageAt"`
	LastMessageSenderUID string  `json:"lastMessageSenderUid"`
	UnreadCount          int64   `json:"unreadCount"`
	ListingID            *uint64 `json:"listingId,omitempty"`
	ListingTitle         *string `json:"listingTitle,omitempty"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

func toConversationResponse(s service.ConversationSummary) ConversationResponse {
	return ConversationResponse{
		PartnerUID:           s.PartnerUID,
		PartnerDisplayName:   s.PartnerDisplayName,
		PartnerAvatarURL:     s.PartnerAvatarURL,
		LastMessageID:        s.LastMessageID,
		LastMessageText:      s.LastMessageText,
		LastMessageAt:        s.LastMessageAt.UTC().Format(time.RFC3339),
		LastMessageSenderUID: s.LastMessageSenderUID,
		UnreadCount:          s.UnreadCount,
		ListingID:            s.ListingID,
		ListingTitle:         s.ListingTitle,
	}
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return writeError(c, http.StatusUnauthorized, CodeUnauthorized, "missing uid")
	}
	limit, err := intQuery(c, "limit", service.DefaultLimit)
	if err != nil {
		return writeError(c, http.StatusBadRequest, CodeBadRequest, "invalid limit")
	}
	offset, err := intQuery(c, "offset", service.DefaultOffset)
	if err != nil {
		return writeError(c, http.StatusBadRequest, CodeBadRequest, "invalid offset")
	}

	convs, err := h.svc.List(c.Request().Context(), uid, service.WithLimit(limit), service.WithOffset(offset))
	if err != nil {
		return h.fail(c, err, "failed to fetch conversations")
	}
	resp := ConversationListResponse{
		Conversations: make([]ConversationResponse, 0, len(convs)),
		Limit:         limit,
		Offset:        offset,
	}
	for _, cv := range convs {
		resp.Conversations = append(resp.Conversations, toConversationResponse(cv))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) UnreadCount(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return writeError(c, http.StatusUnauthorized, CodeUnauthorized, "missing uid")
	}
	n, err := h.svc.UnreadTotal(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, err, "failed to count unread messages")
	}
	return c.JSON(http.StatusOK, UnreadCountResponse{UnreadCount: n})
}

func (h *ConversationHandler) fail(c echo.Context, err error, msg string) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, service.ErrInvalidPagination):
		return writeError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, service.ErrMissingUser):
		return writeError(c, http.StatusUnauthorized, CodeUnauthorized, "missing uid")
	case repository.IsStoreUnavailable(err), errors.Is(err, service.ErrConversationsUnavailable):
		h.logger.WarnContext(ctx, "conversations unavailable", "error", err, "request_id", reqctx.RID(ctx))
		return writeError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, "conversations unavailable, retry later")
	}
	h.logger.ErrorContext(ctx, msg, "error", err, "request_id", reqctx.RID(ctx))
	return writeError(c, http.StatusInternalServerError, CodeInternal, msg)
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
