package chat

import (
	"encoding/json"
	"time"

	"github.com/vyleayush/Talksy/internal/models"
)

// 入站事件类型的封闭集合,未知类型在分发处统一拒绝。
type InboundType string

const (
	InJoin         InboundType = "join-chat"
	InSendMessage  InboundType = "send-message"
	InTypingStart  InboundType = "typing-start"
	InTypingStop   InboundType = "typing-stop"
	InInitiateCall InboundType = "initiate-call"
	InCallResponse InboundType = "call-response"
	InEndCall      InboundType = "end-call"
	InOffer        InboundType = "webrtc-offer"
	InAnswer       InboundType = "webrtc-answer"
	InICECandidate InboundType = "webrtc-ice-candidate"
)

// envelope 入站帧的外层结构,具体负载按 Type 二次解码。
type envelope struct {
	Type InboundType `json:"type"`
}

type joinPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type sendMessagePayload struct {
	Kind     models.MessageKind `json:"kind"`
	Message  string             `json:"message"`
	FileURL  string             `json:"fileUrl"`
	FileName string             `json:"fileName"`
	FileSize int64              `json:"fileSize"`
}

type initiateCallPayload struct {
	TargetID string          `json:"targetId"`
	Mode     models.CallMode `json:"mode"`
}

type callResponsePayload struct {
	CallToken string `json:"callToken"`
	Accepted  bool   `json:"accepted"`
}

type endCallPayload struct {
	CallToken string `json:"callToken"`
}

type signalPayload struct {
	CallToken string          `json:"callToken"`
	TargetID  string          `json:"targetId"`
	Payload   json.RawMessage `json:"payload"`
}

// Event 出站事件的封闭集合,分发层只负责序列化与投递。
type Event interface{ isEvent() }

// UserView 花名册里对外暴露的连接视图。
type UserView struct {
	ID       string              `json:"id"`
	Username string              `json:"username"`
	Avatar   string              `json:"avatar"`
	Status   models.OnlineStatus `json:"status"`
	JoinedAt time.Time           `json:"joinedAt"`
}

// MessageView 对外输出的消息数据,Timestamp 是客户端直接渲染的 hh:mm 展示时间。
type MessageView struct {
	ID        uint64             `json:"id"`
	UserID    string             `json:"userId"`
	Username  string             `json:"username"`
	Avatar    string             `json:"avatar"`
	Kind      models.MessageKind `json:"kind"`
	Message   string             `json:"message"`
	FileURL   string             `json:"fileUrl,omitempty"`
	FileName  string             `json:"fileName,omitempty"`
	FileSize  int64              `json:"fileSize,omitempty"`
	Timestamp string             `json:"timestamp"`
	SentAt    time.Time          `json:"sentAt"`
}

type JoinedEvent struct {
	Type string   `json:"type"`
	Self UserView `json:"self"`
}

type RosterEvent struct {
	Type  string     `json:"type"`
	Users []UserView `json:"users"`
}

type HistoryEvent struct {
	Type     string        `json:"type"`
	Messages []MessageView `json:"messages"`
}

type MessageEvent struct {
	Type string `json:"type"`
	MessageView
}

type UserJoinedEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type UserLeftEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type IncomingCallEvent struct {
	Type         string          `json:"type"`
	CallToken    string          `json:"callToken"`
	CallerID     string          `json:"callerId"`
	CallerName   string          `json:"callerName"`
	CallerAvatar string          `json:"callerAvatar"`
	Mode         models.CallMode `json:"mode"`
}

type CallInitiatedEvent struct {
	Type      string          `json:"type"`
	CallToken string          `json:"callToken"`
	TargetID  string          `json:"targetId"`
	Mode      models.CallMode `json:"mode"`
}

type CallAcceptedEvent struct {
	Type      string `json:"type"`
	CallToken string `json:"callToken"`
}

type CallDeclinedEvent struct {
	Type      string `json:"type"`
	CallToken string `json:"callToken"`
}

type CallEndedEvent struct {
	Type      string `json:"type"`
	CallToken string `json:"callToken"`
	Reason    string `json:"reason,omitempty"`
}

type SignalEvent struct {
	Type      string          `json:"type"`
	CallToken string          `json:"callToken"`
	SenderID  string          `json:"senderId"`
	Payload   json.RawMessage `json:"payload"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (JoinedEvent) isEvent()        {}
func (RosterEvent) isEvent()        {}
func (HistoryEvent) isEvent()       {}
func (MessageEvent) isEvent()       {}
func (UserJoinedEvent) isEvent()    {}
func (UserLeftEvent) isEvent()      {}
func (TypingEvent) isEvent()        {}
func (IncomingCallEvent) isEvent()  {}
func (CallInitiatedEvent) isEvent() {}
func (CallAcceptedEvent) isEvent()  {}
func (CallDeclinedEvent) isEvent()  {}
func (CallEndedEvent) isEvent()     {}
func (SignalEvent) isEvent()        {}
func (ErrorEvent) isEvent()         {}

// Sender 分发层的三个投递原语,均为尽力而为。由 ws.Hub 实现。
type Sender interface {
	Unicast(connID string, evt Event)
	BroadcastAll(evt Event)
	BroadcastExcept(exceptID string, evt Event)
}

func errorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: msg}
}

// clockStamp 生成客户端直接展示的 hh:mm 时间串。
func clockStamp(t time.Time) string {
	return t.Format("03:04 PM")
}

func userView(c models.Connection) UserView {
	return UserView{ID: c.ID, Username: c.Username, Avatar: c.Avatar, Status: c.Status, JoinedAt: c.JoinedAt}
}

func messageView(m models.Message) MessageView {
	v := MessageView{
		ID:        m.ID,
		UserID:    m.SenderID,
		Username:  m.Username,
		Avatar:    m.Avatar,
		Kind:      m.Kind,
		Message:   m.Body,
		Timestamp: clockStamp(m.SentAt),
		SentAt:    m.SentAt,
	}
	if m.Media != nil {
		v.FileURL = m.Media.URL
		v.FileName = m.Media.OriginalName
		v.FileSize = m.Media.SizeBytes
	}
	return v
}
