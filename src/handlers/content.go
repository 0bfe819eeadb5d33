package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/services"
)

// ContentHandler serves the public portfolio document and UI dictionaries
type ContentHandler struct {
	content      services.ContentProvider
	dictionaries services.DictionaryProvider
}

// NewContentHandler creates a new content handler
func NewContentHandler(content services.ContentProvider, dictionaries services.DictionaryProvider) *ContentHandler {
	return &ContentHandler{
		content:      content,
		dictionaries: dictionaries,
	}
}

// HandleContent handles GET /api/content
func (h *ContentHandler) HandleContent(c *gin.Context) {
	portfolio, err := h.content.Portfolio(c.Request.Context())
	if err != nil {
		logger := logging.ComponentLogger("content", middleware.GetRequestID(c))
		logger.Error().
			Err(err).
			Msg("failed to load portfolio")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "content unavailable"})
		return
	}

	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, portfolio)
}

// HandleDictionary handles GET /api/dictionaries/:locale
func (h *ContentHandler) HandleDictionary(c *gin.Context) {
	locale := c.Param("locale")

	dict, served, err := h.dictionaries.Dictionary(c.Request.Context(), locale)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLocale) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locale"})
			return
		}
		logger := logging.ComponentLogger("content", middleware.GetRequestID(c))
		logger.Error().
			Err(err).
			Str("locale", locale).
			Msg("failed to load dictionary")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dictionary unavailable"})
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Header("Content-Language", served)
	c.JSON(http.StatusOK, gin.H{
		"locale":  served,
		"strings": dict,
	})
}
