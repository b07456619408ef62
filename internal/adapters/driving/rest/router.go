package rest

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(rag *gin.RouterGroup) {
	rag.GET("/health", s.health)

	rag.POST("/chat", s.chat)
	rag.GET("/conversations", s.listConversations)
	rag.GET("/conversations/:id", s.getConversation)
	rag.DELETE("/conversations/:id", s.deleteConversation)

	rag.POST("/ingest", s.ingest)
	rag.POST("/ingest/upload", s.ingestUpload)
	rag.GET("/ingestions", s.listIngestions)
}
