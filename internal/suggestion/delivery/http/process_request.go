package http

import (
	"github.com/gin-gonic/gin"
)

// processCreateSessionReq binds and validates the create session body.
func (h *handler) processCreateSessionReq(c *gin.Context) (createSessionReq, error) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}
