package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vyleayush/Talksy/internal/chat"
	"github.com/vyleayush/Talksy/internal/metrics"
)

// Hub 分发层:按连接标识维护已接入的客户端,提供单播与两种广播原语。
// 所有投递都是尽力而为:目标不在场就丢弃,慢消费者直接摘除,
// "在场"以投递那一刻为准,扇出过程中不做任何快照保证。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	metrics.WsConnections.Inc()
}

func (h *Hub) detach(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		c.close()
	}
	h.mu.Unlock()
	if ok {
		metrics.WsConnections.Dec()
	}
}

// Attached 当前接入的连接数。
func (h *Hub) Attached() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Unicast 向指定连接投递事件,连接不在场时静默丢弃。
func (h *Hub) Unicast(connID string, evt chat.Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("marshal event")
		return
	}
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.trySend(b)
}

// BroadcastAll 向所有在场连接投递事件。
func (h *Hub) BroadcastAll(evt chat.Event) {
	h.fanout("", evt)
}

// BroadcastExcept 向除 exceptID 外的所有在场连接投递事件。
func (h *Hub) BroadcastExcept(exceptID string, evt chat.Event) {
	h.fanout(exceptID, evt)
}

func (h *Hub) fanout(exceptID string, evt chat.Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("marshal event")
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if id == exceptID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.trySend(b)
	}
}
