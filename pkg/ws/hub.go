package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 推送给看板的消息类型
const (
	MsgTypeInit             = "init"              // 连接建立时的状态与概览
	MsgTypeDatasetRefreshed = "dataset_refreshed" // 新数据集已发布
	MsgTypeRefreshFailed    = "refresh_failed"    // 刷新失败，旧数据集继续生效
	MsgTypeStateChange      = "state_change"      // 刷新状态机快照
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

// Message 推送信封
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InitData init 消息内容
type InitData struct {
	Status   interface{} `json:"status"`
	Overview interface{} `json:"overview,omitempty"`
}

// Client 单个看板连接
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub 在单个 goroutine 中维护连接集合并扇出推送
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	joins   chan *Client
	leaves  chan *Client
	outbox  chan []byte
	done    chan struct{}
	stopped sync.Once

	initData func() *InitData
}

// NewHub 创建 Hub，需另起 goroutine 调用 Run
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
		joins:   make(chan *Client),
		leaves:  make(chan *Client),
		outbox:  make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// SetInitDataProvider 新连接建立时调用 provider 生成 init 消息
func (h *Hub) SetInitDataProvider(provider func() *InitData) {
	h.initData = provider
}

// Run 事件循环，Stop 后关闭所有连接并返回
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case c := <-h.joins:
			h.attach(c)
		case c := <-h.leaves:
			h.detach(c)
		case msg := <-h.outbox:
			h.fanOut(msg)
		}
	}
}

// Stop 可重复调用
func (h *Hub) Stop() {
	h.stopped.Do(func() { close(h.done) })
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Dashboard client connected", zap.Int("clients", n))
	h.greet(c)
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Dashboard client disconnected", zap.Int("clients", n))
}

// fanOut 发送缓冲已满的连接直接断开
func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) greet(c *Client) {
	if h.initData == nil {
		return
	}
	data := h.initData()
	if data == nil {
		return
	}

	payload, err := json.Marshal(Message{Type: MsgTypeInit, Data: data})
	if err != nil {
		h.logger.Error("Encode init message", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("Dropped init message, client buffer full")
	}
}

// Broadcast 推送原始 JSON，Hub 停止后静默丢弃
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.outbox <- message:
	case <-h.done:
	}
}

// BroadcastMessage 编码为 Message 后推送
func (h *Hub) BroadcastMessage(msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("Encode broadcast message", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.Broadcast(payload)
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient 包装已升级的连接
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
}

// Register 加入 Hub；Hub 已停止时关闭发送通道，使 WritePump 退出
func (c *Client) Register() {
	select {
	case c.hub.joins <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

// Unregister 离开 Hub
func (c *Client) Unregister() {
	select {
	case c.hub.leaves <- c:
	case <-c.hub.done:
	}
}

// ReadPump 丢弃客户端输入，连接断开时离开 Hub
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump 把 send 中的消息写到连接，send 关闭或写失败时返回
func (c *Client) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
