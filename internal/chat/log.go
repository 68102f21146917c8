package chat

import (
	"sync"
	"time"

	"github.com/vyleayush/Talksy/internal/models"
)

// Log 有界消息日志:只追加,超出上限时先进先出淘汰最旧的一条,
// 已有条目从不修改。这是一个严格的有界队列,不带任何最近使用语义。
type Log struct {
	mu    sync.Mutex
	reg   *Registry
	limit int
	next  uint64
	msgs  []models.Message
}

func NewLog(reg *Registry, limit int) *Log {
	if limit <= 0 {
		limit = 100
	}
	return &Log{reg: reg, limit: limit, next: 1}
}

// Append 登记一条消息:发送者必须是已知连接(不区分在线状态),
// 分配递增 id 并打上时间戳,返回入库后的消息供广播。
func (l *Log) Append(senderID string, kind models.MessageKind, body string, media *models.MediaRef) (models.Message, error) {
	sender, ok := l.reg.Get(senderID)
	if !ok {
		return models.Message{}, ErrNotRegistered
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	msg := models.Message{
		ID:       l.next,
		SenderID: senderID,
		Username: sender.Username,
		Avatar:   sender.Avatar,
		Kind:     kind,
		Body:     body,
		Media:    media,
		SentAt:   time.Now(),
	}
	l.next++
	l.msgs = append(l.msgs, msg)
	if len(l.msgs) > l.limit {
		l.msgs = l.msgs[1:]
	}
	return msg, nil
}

// History 按插入顺序(最旧在前)返回当前日志内容,入会时推送一次。
func (l *Log) History() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len 当前日志条数。
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
