package http

import (
	"github.com/gin-gonic/gin"

	"talk-support/internal/suggestion"
	"talk-support/pkg/log"
)

// Handler is the public interface for the suggestion HTTP delivery layer.
type Handler interface {
	CreateSession(c *gin.Context)
	DeleteSession(c *gin.Context)
	StreamTopics(c *gin.Context)
}

type handler struct {
	l  log.Logger
	uc suggestion.UseCase

	// autoDelete closes the session when its websocket disconnects.
	autoDelete bool
}

// New creates a new HTTP handler for the suggestion domain.
func New(l log.Logger, uc suggestion.UseCase, autoDelete bool) *handler {
	return &handler{
		l:          l,
		uc:         uc,
		autoDelete: autoDelete,
	}
}
