package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/period"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// Hub WebSocket连接管理中心，同时作为游戏的展示层广播状态变化
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// 客户端请求同步时读取当前状态
	stateSource func(ctx context.Context) *state.Document

	pingInterval time.Duration
	logger       *zap.Logger
}

// Client WebSocket客户端
type Client struct {
	ID   string          // 客户端ID
	Hub  *Hub            // Hub引用
	Conn *websocket.Conn // WebSocket连接
	Send chan []byte     // 发送通道
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`           // 消息类型
	Data      json.RawMessage `json:"data,omitempty"` // 消息数据
	Timestamp int64           `json:"timestamp"`      // 时间戳
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"
	MessageTypeSync      = "sync" // 客户端请求当前状态

	// 游戏消息
	MessageTypePeriodStarted        = "period_started"
	MessageTypeInvestorMeeting      = "investor_meeting"
	MessageTypeDeliveryResultsReady = "delivery_results_ready"
	MessageTypeStateChanged         = "state_changed"
	MessageTypeSaveFailed           = "save_failed"
)

// HubOption Hub选项
type HubOption func(*Hub)

// WithStateSource 设置状态来源，客户端发送 sync 时推送当前状态
func WithStateSource(fn func(ctx context.Context) *state.Document) HubOption {
	return func(h *Hub) {
		h.stateSource = fn
	}
}

// WithPingInterval 设置心跳间隔
func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:      make(map[string]*Client),
		broadcast:    make(chan *Message, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetStateSource 设置状态来源（游戏服务创建后注入）
func (h *Hub) SetStateSource(fn func(ctx context.Context) *state.Document) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.stateSource = fn
}

// currentState 读取当前状态，未设置来源时返回 nil
func (h *Hub) currentState(ctx context.Context) *state.Document {
	h.clientsMu.RLock()
	fn := h.stateSource
	h.clientsMu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Run 运行Hub，ctx 取消时关闭所有客户端
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.broadcastMessage(&Message{Type: MessageTypePing, Timestamp: time.Now().Unix()})
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))

	// 发送连接成功消息
	msg := &Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().Unix(),
		Data:      json.RawMessage(`{"message":"连接成功"}`),
	}
	h.SendToClient(client.ID, msg)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// closeAll 关闭所有客户端
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
		}
	}
	h.clientsMu.RUnlock()
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	client, ok := h.clients[clientID]
	h.clientsMu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Publish 序列化数据并广播，不阻塞调用方
func (h *Hub) Publish(msgType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.String("type", msgType), zap.Error(err))
		return
	}

	msg := &Message{Type: msgType, Data: payload, Timestamp: time.Now().Unix()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("广播队列已满，丢弃消息", zap.String("type", msgType))
	}
}

// PeriodStarted 实现 game.Presenter
func (h *Hub) PeriodStarted(started period.Started) {
	h.Publish(MessageTypePeriodStarted, started)
}

// InvestorMeeting 实现 game.Presenter
func (h *Hub) InvestorMeeting(started period.Started) {
	h.Publish(MessageTypeInvestorMeeting, started)
}

// DeliveryResultsReady 实现 game.Presenter
func (h *Hub) DeliveryResultsReady(report *game.DeliveryReport) {
	h.Publish(MessageTypeDeliveryResultsReady, report)
}

// StateChanged 实现 game.Presenter
func (h *Hub) StateChanged(doc *state.Document) {
	h.Publish(MessageTypeStateChanged, doc)
}

// Broadcast 广播消息（公开方法）
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

var _ game.Presenter = (*Hub)(nil)
