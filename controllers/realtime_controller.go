package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts the origins CORS allows
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	cfg := config.GetConfig()
	if origin == "" || cfg == nil {
		return true
	}
	for _, allowed := range cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// MessageStream handles GET /api/v1/messages/ws - upgrades to a websocket
// that receives the caller's direct messages and the messages of the groups
// named in ?groups=a,b
func MessageStream(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	topics := []string{services.UserTopic(user.ID)}
	for _, groupID := range strings.Split(c.Query("groups"), ",") {
		if groupID = strings.TrimSpace(groupID); groupID == "" {
			continue
		}
		if err := svc.Messages.CanJoinGroup(c.Request.Context(), groupID, user.ID); err != nil {
			respondError(c, err)
			return
		}
		topics = append(topics, services.GroupTopic(groupID))
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed for user %s: %v", user.ID, err)
		return
	}

	sub := services.GetHub().Subscribe(topics...)
	go writePump(conn, sub)
	go readPump(conn, sub)
}

// readPump discards client frames and keeps the read deadline alive. It
// ends the subscription when the peer goes away.
func readPump(conn *websocket.Conn, sub *services.Subscriber) {
	defer sub.Close()
	conn.SetReadLimit(8 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *services.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
