package controllers

import (
	"net/http"

	"github.com/brewcraft/restaurant-backend/chat"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/middlewares"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxFrameSize = 8 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS middleware and the token check
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketController struct {
	Hub  *hub.Hub
	Chat *chat.Service
}

func NewWebSocketController(h *hub.Hub, chatSvc *chat.Service) *WebSocketController {
	return &WebSocketController{Hub: h, Chat: chatSvc}
}

// ChatHandler -> authenticated chat socket; frames go to chat.HandleFrame
func (wc *WebSocketController) ChatHandler(c *gin.Context) {
	wc.serve(c, func(conn *websocket.Conn, client hub.Client, raw []byte) {
		wc.Chat.HandleFrame(c.Request.Context(), conn, client, raw)
	})
}

// DashboardHandler -> admin socket receiving booking and table events
func (wc *WebSocketController) DashboardHandler(c *gin.Context) {
	wc.serve(c, nil)
}

func (wc *WebSocketController) serve(c *gin.Context, onFrame func(*websocket.Conn, hub.Client, []byte)) {
	username, role, ok := middlewares.CurrentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade: %v", err)
		return
	}

	client := hub.Client{UserID: username, Role: role}
	wc.Hub.Register(ws, client)
	defer wc.Hub.Unregister(ws)
	utils.InfoLogger.Printf("Websocket connected: %s (%s), %d online", username, role, wc.Hub.Count())

	ws.SetReadLimit(maxFrameSize)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if onFrame != nil {
			onFrame(ws, client, raw)
		}
	}
	utils.InfoLogger.Printf("Websocket disconnected: %s", username)
}
