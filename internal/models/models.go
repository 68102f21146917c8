package models

import "time"

// OnlineStatus 连接的在线状态。
type OnlineStatus string

const (
	StatusOnline  OnlineStatus = "online"
	StatusOffline OnlineStatus = "offline"
)

// MessageKind 消息类型的封闭集合。
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVideo MessageKind = "video"
	KindVoice MessageKind = "voice"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindVoice:
		return true
	}
	return false
}

// CallMode 通话媒体类型。
type CallMode string

const (
	ModeVoice CallMode = "voice"
	ModeVideo CallMode = "video"
)

func (m CallMode) Valid() bool {
	return m == ModeVoice || m == ModeVideo
}

// CallState 通话状态机的状态集合,declined 与 ended 为终态。
type CallState string

const (
	CallRinging  CallState = "ringing"
	CallAccepted CallState = "accepted"
	CallDeclined CallState = "declined"
	CallEnded    CallState = "ended"
)

// Connection 一个活跃的客户端连接,ID 在连接建立时分配且进程内不复用。
type Connection struct {
	ID         string
	Username   string
	Avatar     string
	Status     OnlineStatus
	JoinedAt   time.Time
	LastSeenAt time.Time
}

// MediaRef 媒体消息指向上传存储的引用,kind 为 text 时不存在。
type MediaRef struct {
	URL          string `json:"fileUrl"`
	OriginalName string `json:"fileName"`
	SizeBytes    int64  `json:"fileSize"`
}

// Message 聊天消息,创建后不可变。SenderID 是弱引用,发送者可能已断开。
type Message struct {
	ID       uint64
	SenderID string
	Username string
	Avatar   string
	Kind     MessageKind
	Body     string
	Media    *MediaRef
	SentAt   time.Time
}

// Call 一次通话协商,Token 在并发通话间唯一。
type Call struct {
	Token     string
	CallerID  string
	TargetID  string
	Mode      CallMode
	State     CallState
	StartedAt time.Time
}

// Has 判断 id 是否为该通话的参与方。
func (c *Call) Has(id string) bool {
	return id == c.CallerID || id == c.TargetID
}

// Peer 返回 id 对端的参与方,id 不是参与方时返回 false。
func (c *Call) Peer(id string) (string, bool) {
	switch id {
	case c.CallerID:
		return c.TargetID, true
	case c.TargetID:
		return c.CallerID, true
	}
	return "", false
}

// Live 判断通话是否仍在进行(非终态)。
func (c *Call) Live() bool {
	return c.State == CallRinging || c.State == CallAccepted
}
