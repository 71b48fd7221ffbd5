package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"talk-support/internal/suggestion"
	"talk-support/pkg/response"
)

// CreateSession godoc
// @Summary     Create a conversation session
// @Description Builds interest profiles from both users' SNS data and returns opening suggestions.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body body createSessionReq true "Both users' SNS data"
// @Success     200 {object} createSessionResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/sessions [POST]
func (h *handler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processCreateSessionReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	output, err := h.uc.CreateSession(ctx, req.toInput())
	if err != nil {
		if errors.Is(err, suggestion.ErrInvalidSignal) {
			response.Error(c, err, nil)
			return
		}
		h.l.Errorf(ctx, "uc.CreateSession: %v", err)
		response.InternalError(c, err)
		return
	}

	response.OK(c, newCreateSessionResp(output))
}

// DeleteSession godoc
// @Summary     Delete a session
// @Description Terminates the session, cancelling any in-flight processing.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       id path string true "Session ID"
// @Success     200 {object} response.Resp "OK"
// @Failure     404 {object} response.Resp "Not Found"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/sessions/{id} [DELETE]
func (h *handler) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	if id == "" {
		response.Error(c, errors.New("id is required"), nil)
		return
	}

	if err := h.uc.CloseSession(ctx, id); err != nil {
		if errors.Is(err, suggestion.ErrSessionNotFound) {
			response.NotFound(c, err)
			return
		}
		h.l.Errorf(ctx, "uc.CloseSession: %v", err)
		response.InternalError(c, err)
		return
	}

	response.OK(c, nil)
}
