package server

import (
	"errors"
	"net/http"

	"github.com/Desarso/deckchat"
	"github.com/Desarso/deckchat/docs"
	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/pdftext"
	"github.com/Desarso/deckchat/protocol"
	"github.com/Desarso/deckchat/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// Handler holds the route handlers.
type Handler struct {
	Gateway *deckchat.Gateway
}

// Chat godoc
// @Summary  Stream a chat completion
// @Accept   json
// @Produce  plain
// @Param    protocol  query  string                true  "Stream framing"  Enums(data, text)  default(data)
// @Param    request   body   models.Chat_Request   true  "Conversation and optional system hint"
// @Success  200  {string}  string
// @Failure  400  {object}  models.ErrorResponse
// @Failure  502  {object}  models.ErrorResponse
// @Router   /api/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req models.Chat_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.Gateway.NewChatSession("", c.DefaultQuery("protocol", protocol.Data))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	stream, err := session.Open(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.Header(protocol.StreamHeader, protocol.StreamHeaderVersion)
	c.Header("Content-Type", protocol.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	if err := stream.Pump(&ginPartWriter{c: c}); err != nil {
		session.Logger.Warn().Err(err).Msg("chat stream ended early")
	}
}

// PresentationMeta godoc
// @Summary  Deck metadata from a PDF
// @Accept   json
// @Produce  json
// @Param    request  body  models.Presentation_Meta_Request  true  "PDF data URL and optional filename"
// @Success  200  {object}  models.DeckMetadata
// @Failure  400  {object}  models.ErrorResponse
// @Router   /api/presentation_meta [post]
func (h *Handler) PresentationMeta(c *gin.Context) {
	if limit := h.Gateway.Config.MaxPDFBytes; limit > 0 {
		// base64 inflates by 4/3; leave room for the JSON envelope
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit/3*4+64<<10)
	}

	var req models.Presentation_Meta_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: pdftext.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	meta, err := h.Gateway.PresentationMeta(c.Request.Context(), req.PDFDataURL, req.Filename)
	if err != nil {
		var pdfErr *pdftext.Error
		switch {
		case errors.Is(err, pdftext.ErrInvalidDataURL):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid PDF data URL"})
		case errors.Is(err, pdftext.ErrTooLarge):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		case errors.As(err, &pdfErr):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Failed to parse PDF: " + pdfErr.Err.Error()})
		default:
			log.Error().Err(err).Msg("presentation metadata failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, meta)
}

// ChatWebSocket godoc
// @Summary  Chat over WebSocket
// @Param    protocol  query  string  false  "Stream framing"  Enums(data, text)  default(data)
// @Success  101
// @Router   /api/chat/ws [get]
func (h *Handler) ChatWebSocket(c *gin.Context) {
	encoder, err := protocol.New(c.DefaultQuery("protocol", protocol.Data))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(h.Gateway.Config.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	session := sessions.NewWebSocketSession(uuid.NewString(), conn, h.Gateway.Model, encoder, h.Gateway.ChatOptions())
	if err := session.Run(c.Request.Context()); err != nil {
		session.Logger.Warn().Err(err).Msg("WebSocket session ended with error")
	}
}

// Health godoc
// @Summary  Health check
// @Produce  json
// @Success  200  {object}  models.HealthResponse
// @Router   /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Provider: h.Gateway.Model.Name(),
		Model:    h.Gateway.Config.ChatModelName(),
	})
}

// SwaggerDoc serves the registered OpenAPI document.
func (h *Handler) SwaggerDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

// ginPartWriter writes stream parts to the response and flushes each one.
type ginPartWriter struct {
	c *gin.Context
}

func (w *ginPartWriter) WritePart(part string) error {
	if _, err := w.c.Writer.WriteString(part); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}
