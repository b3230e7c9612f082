package chatControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/assistant"
	"github.com/tienchung1704/real-dinhanstore/config"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
	"gorm.io/gorm"
)

const featuredInPrompt = 8

type ChatRequest struct {
	Message string              `json:"message" binding:"required,max=2000"`
	History []assistant.Message `json:"history" binding:"dive"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// POST /chat
func Chat(db *gorm.DB, shop *config.ShopSettings, bot assistant.Assistant) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		msg := strings.TrimSpace(req.Message)
		if msg == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
			return
		}

		var featured []models.Product
		if err := db.WithContext(c.Request.Context()).
			Where("is_active = ? AND is_featured = ?", true, true).
			Order("created_at DESC").Limit(featuredInPrompt).
			Find(&featured).Error; err != nil {
			logx.Error().Err(err).Msg("load featured products for chat")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare chat"})
			return
		}
		system, err := assistant.SystemPrompt(shop, featured)
		if err != nil {
			logx.Error().Err(err).Msg("render chat prompt")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare chat"})
			return
		}

		history := append(req.History, assistant.Message{Role: assistant.RoleUser, Content: msg})
		reply, err := bot.Reply(c.Request.Context(), system, assistant.Trim(history))
		switch {
		case errors.Is(err, assistant.ErrDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat is not available"})
			return
		case err != nil:
			logx.Warn().Err(err).Msg("assistant reply failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable, please try again"})
			return
		}
		c.JSON(http.StatusOK, ChatResponse{Reply: reply})
	}
}
