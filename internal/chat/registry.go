package chat

import (
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vyleayush/Talksy/internal/models"
)

// 用户名规则:字母/数字/下划线/空格,2–20 个字符。
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_ ]{2,20}$`)

// DisconnectListener 在连接转为离线后被回调,供上层组件(通话协调器)清理。
// 注册表不直接依赖协调器,避免依赖环。
type DisconnectListener func(connID string)

type regEntry struct {
	conn  models.Connection
	purge *time.Timer
}

// Registry 连接注册表。断开的连接先标记离线,宽限期后由定时器物理删除;
// 连接标识按 socket 分配且不复用,定时器只在进程退出时取消。
type Registry struct {
	mu        sync.Mutex
	conns     map[string]*regEntry
	order     []string
	grace     time.Duration
	listeners []DisconnectListener
	onPurged  func(connID string)
	closed    bool
}

func NewRegistry(grace time.Duration) *Registry {
	return &Registry{conns: make(map[string]*regEntry), grace: grace}
}

// OnDisconnect 注册断开监听器,在 MarkOffline 生效后同步触发。
func (r *Registry) OnDisconnect(l DisconnectListener) {
	r.listeners = append(r.listeners, l)
}

// OnPurged 注册宽限期删除后的回调,用于延迟的花名册刷新广播。
func (r *Registry) OnPurged(fn func(connID string)) {
	r.onPurged = fn
}

// Register 校验用户名并登记连接。注册表是用户名规则的最终裁决者,
// 即使边界层已经校验过也再查一次。
func (r *Registry) Register(connID, username, avatar string) (models.Connection, error) {
	if !usernameRe.MatchString(username) {
		return models.Connection{}, ErrInvalidUsername
	}
	now := time.Now()
	conn := models.Connection{
		ID:         connID,
		Username:   username,
		Avatar:     avatar,
		Status:     models.StatusOnline,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	r.mu.Lock()
	if prev, ok := r.conns[connID]; ok {
		// 同一 socket 重复 join 只更新资料
		if prev.purge != nil {
			prev.purge.Stop()
			prev.purge = nil
		}
		prev.conn = conn
	} else {
		r.conns[connID] = &regEntry{conn: conn}
		r.order = append(r.order, connID)
	}
	r.mu.Unlock()
	return conn, nil
}

// Get 按标识读取连接快照。
func (r *Registry) Get(connID string) (models.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[connID]
	if !ok {
		return models.Connection{}, false
	}
	return e.conn, true
}

// Known 判断标识是否已登记,不区分在线状态。
func (r *Registry) Known(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[connID]
	return ok
}

// IsOnline 判断标识是否登记且在线。
func (r *Registry) IsOnline(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[connID]
	return ok && e.conn.Status == models.StatusOnline
}

// MarkOffline 将连接标记为离线并调度宽限期删除。幂等:重复调用返回 false,
// 监听器只在首次状态翻转时触发。
func (r *Registry) MarkOffline(connID string) (models.Connection, bool) {
	r.mu.Lock()
	e, ok := r.conns[connID]
	if !ok || e.conn.Status != models.StatusOnline {
		r.mu.Unlock()
		return models.Connection{}, false
	}
	e.conn.Status = models.StatusOffline
	e.conn.LastSeenAt = time.Now()
	if !r.closed {
		id := connID
		e.purge = time.AfterFunc(r.grace, func() { r.purge(id) })
	}
	conn := e.conn
	listeners := r.listeners
	r.mu.Unlock()

	for _, l := range listeners {
		l(connID)
	}
	return conn, true
}

// purge 宽限期到后物理删除记录并触发延迟的花名册刷新。
func (r *Registry) purge(connID string) {
	r.mu.Lock()
	e, ok := r.conns[connID]
	if !ok || e.conn.Status != models.StatusOffline {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	onPurged := r.onPurged
	r.mu.Unlock()

	log.Debug().Str("conn_id", connID).Msg("connection purged")
	if onPurged != nil {
		onPurged(connID)
	}
}

// Snapshot 按插入顺序返回全部已知连接,展示排序是客户端的事。
func (r *Registry) Snapshot() []models.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Connection, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.conns[id].conn)
	}
	return out
}

// Close 停止所有宽限期定时器,仅在进程退出时调用。
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for _, e := range r.conns {
		if e.purge != nil {
			e.purge.Stop()
		}
	}
}
