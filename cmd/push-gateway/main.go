// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
)

const (
	serviceName  = "push-gateway"
	alertGroupID = "push-gateway-group"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	nodeID   = "push-gateway-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
			return true
		},
	}
)

// Hub 维护所有活跃的连接，并把低库存告警广播给每一个订阅者
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logger.Logger().Info().Str("node", nodeID).Int("clients", len(h.clients)).Msg("client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			logger.Logger().Info().Int("clients", len(h.clients)).Msg("client unregistered")
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 慢客户端直接踢掉，避免广播被单个连接拖垮
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Client 是一个WebSocket连接的代表
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// writePump 把send channel中的消息写入websocket，并定期发送心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费心跳响应，客户端不向网关发送业务消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// consumeAlerts 订阅告警主题，把每条告警原样广播给所有连接。
// 每个网关节点使用独立的消费组，保证所有节点都能收到全部告警
func consumeAlerts(ctx context.Context, hub *Hub) {
	cfg := bootstrap.GetCurrentConfig()
	reader := mq.NewKafkaReader(cfg.KafkaBrokerList(), cfg.Infra.Kafka.AlertTopic, alertGroupID+"-"+nodeID)
	defer reader.Close()

	logger.Ctx(ctx).Info().Str("topic", cfg.Infra.Kafka.AlertTopic).Msg("✅ alert consumer started")
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("🛑 alert consumer shutting down.")
				return
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not read alert, retrying...")
			time.Sleep(1 * time.Second)
			continue
		}
		hub.broadcast <- msg.Value
	}
}

func main() {
	bootstrap.Init()

	hub := newHub()
	go hub.run()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	go consumeAlerts(consumerCtx, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8088,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, w, r)
			})
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsumer()
		},
	})
}
