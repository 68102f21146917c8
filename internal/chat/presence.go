package chat

import (
	"fmt"
	"time"

	"github.com/vyleayush/Talksy/internal/models"
)

// Presence 纯反应层:把注册表的变更翻译成对客户端的通知,自身不持有状态。
type Presence struct {
	reg    *Registry
	log    *Log
	sender Sender
}

func NewPresence(reg *Registry, log *Log, sender Sender) *Presence {
	return &Presence{reg: reg, log: log, sender: sender}
}

// AnnounceJoin 新成员入会:给本人推自身状态、花名册和历史消息,
// 给其他人广播入会通知,再全量刷新一次花名册。
func (p *Presence) AnnounceJoin(conn models.Connection) {
	p.sender.Unicast(conn.ID, JoinedEvent{Type: "joined", Self: userView(conn)})
	p.sender.Unicast(conn.ID, p.rosterEvent())
	p.sender.Unicast(conn.ID, p.historyEvent())
	p.sender.BroadcastExcept(conn.ID, UserJoinedEvent{
		Type:      "user-joined",
		Username:  conn.Username,
		Message:   fmt.Sprintf("%s joined the chat!", conn.Username),
		Timestamp: clockStamp(time.Now()),
	})
	p.sender.BroadcastAll(p.rosterEvent())
}

// AnnounceLeave 成员离线:广播离开通知并刷新花名册。
// 宽限期后的记录删除会再触发一次 RefreshRoster。
func (p *Presence) AnnounceLeave(conn models.Connection) {
	p.sender.BroadcastExcept(conn.ID, UserLeftEvent{
		Type:      "user-left",
		Username:  conn.Username,
		Message:   fmt.Sprintf("%s left the chat", conn.Username),
		Timestamp: clockStamp(time.Now()),
	})
	p.sender.BroadcastAll(p.rosterEvent())
}

// AnnounceTyping 输入状态直传:服务端不去抖,客户端发什么就转什么。
func (p *Presence) AnnounceTyping(conn models.Connection, isTyping bool) {
	p.sender.BroadcastExcept(conn.ID, TypingEvent{
		Type:     "user-typing",
		UserID:   conn.ID,
		Username: conn.Username,
		IsTyping: isTyping,
	})
}

// RefreshRoster 向所有在线客户端重推花名册。
func (p *Presence) RefreshRoster() {
	p.sender.BroadcastAll(p.rosterEvent())
}

func (p *Presence) rosterEvent() RosterEvent {
	conns := p.reg.Snapshot()
	users := make([]UserView, 0, len(conns))
	for _, c := range conns {
		users = append(users, userView(c))
	}
	return RosterEvent{Type: "active-users", Users: users}
}

func (p *Presence) historyEvent() HistoryEvent {
	msgs := p.log.History()
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m))
	}
	return HistoryEvent{Type: "message-history", Messages: views}
}
