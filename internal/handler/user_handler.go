package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/service"
)

type UserHandler struct {
	users  service.UserDirectory
	logger *slog.Logger
}

func NewUserHandler(users service.UserDirectory, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return writeError(c, http.StatusBadRequest, CodeBadRequest, "invalid uid")
	}
	ctx := c.Request().Context()
	info, err := h.users.DisplayInfo(ctx, uid)
	if err != nil {
		h.logger.WarnContext(ctx, "user lookup failed", "uid", uid, "error", err, "request_id", reqctx.RID(ctx))
		return writeError(c, http.StatusBadGateway, CodeUpstream, "user lookup failed")
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         uid,
		DisplayName: info.Name,
		PhotoURL:    info.AvatarURL,
	})
}
