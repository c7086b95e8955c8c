package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event 推送事件
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SubmissionEvent 新提交事件负载
type SubmissionEvent struct {
	ProtocolID     string `json:"protocol_id"`
	ProtocolNumber string `json:"protocol_number,omitempty"`
	Title          string `json:"title"`
	ResearcherID   string `json:"researcher_id"`
}

// Hub 管理所有 WebSocket 连接
// 新提交事件只推送给管理员客户端
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息到所有客户端
	Broadcast chan []byte

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁,保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifySubmission 向在线管理员推送新提交事件
// 实现 service.SubmissionNotifier
func (h *Hub) NotifySubmission(protocolID, protocolNumber, title, researcherID string) {
	event := Event{
		Type:      "protocol.submitted",
		Timestamp: time.Now(),
		Data: SubmissionEvent{
			ProtocolID:     protocolID,
			ProtocolNumber: protocolNumber,
			Title:          title,
			ResearcherID:   researcherID,
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal submission event")
		return
	}
	h.broadcastToAdmins(payload)
}

// broadcastToAdmins 向管理员客户端广播消息
func (h *Hub) broadcastToAdmins(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.IsAdmin {
			continue
		}
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// BroadcastToUser 向特定用户广播消息
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
