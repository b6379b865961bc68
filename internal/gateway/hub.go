package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodix/exchain/internal/events"
	"github.com/custodix/exchain/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ingressFrame 推送给订阅者的一帧：一个区块内转出的全部入口消息
type ingressFrame struct {
	Block    uint64                  `json:"block"`
	Epoch    bool                    `json:"epoch"`
	Messages []events.IngressMessage `json:"messages"`
}

// Hub 入口消息的 websocket 广播中心。
// 区块循环把每个区块转出的消息整帧广播给所有订阅者；
// 发送缓冲满的慢订阅者被断开，不阻塞其余订阅者。
type Hub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

// NewHub 创建广播中心
func NewHub() *Hub {
	return &Hub{clients: map[*hubClient]struct{}{}}
}

type hubClient struct {
	conn *websocket.Conn
	send chan ingressFrame
}

// Broadcast 把一帧入口消息广播给所有订阅者
func (h *Hub) Broadcast(frame ingressFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// 缓冲已满：关闭发送通道，写循环随之退出
			go h.remove(c)
		}
	}
}

func (h *Hub) add(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount 当前订阅者数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 升级连接并接入广播中心
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("websocket 升级失败: %v", err)
		return
	}
	c := &hubClient{conn: conn, send: make(chan ingressFrame, sendBufferSize)}
	h.add(c)
	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readLoop 只消费控制帧；订阅者不发送业务数据
func (h *Hub) readLoop(c *hubClient) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
