package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

type chatRequest struct {
	ConversationID string         `json:"conversationId"`
	Question       string         `json:"question" binding:"required"`
	Filter         map[string]any `json:"filter"`
}

type conversationsResponse struct {
	Conversations []string `json:"conversations"`
	Count         int      `json:"count"`
}

type conversationResponse struct {
	ConversationID string         `json:"conversationId"`
	Turns          domain.History `json:"turns"`
}

type healthResponse struct {
	Status string              `json:"status"`
	Engine domain.EngineStatus `json:"engine"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	filter, err := domain.NewRetrievalFilter(req.Filter)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := s.ports.Chat.Query(c.Request.Context(), domain.QueryRequest{
		ConversationID: strings.TrimSpace(req.ConversationID),
		Question:       req.Question,
		Filter:         filter,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if result.Sources == nil {
		result.Sources = []domain.SourceDocument{}
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listConversations(c *gin.Context) {
	ids := s.ports.Chat.Conversations()
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, conversationsResponse{Conversations: ids, Count: len(ids)})
}

func (s *Server) getConversation(c *gin.Context) {
	id := c.Param("id")
	history, err := s.ports.Chat.History(id)
	if err != nil {
		fail(c, fmt.Errorf("conversation %s: %w", id, err))
		return
	}
	if history == nil {
		history = domain.History{}
	}
	c.JSON(http.StatusOK, conversationResponse{ConversationID: id, Turns: history})
}

func (s *Server) deleteConversation(c *gin.Context) {
	s.ports.Chat.Clear(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) health(c *gin.Context) {
	st := s.ports.Chat.Status(c.Request.Context())
	status := "ok"
	if !st.Ready() {
		status = "empty"
	}
	c.JSON(http.StatusOK, healthResponse{Status: status, Engine: st})
}
