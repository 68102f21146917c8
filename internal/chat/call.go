package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyleayush/Talksy/internal/models"
)

// Coordinator 通话状态机:ringing → accepted/declined,accepted → ended,
// 任一参与方断开时强制进入 ended。终态立即从活跃表中移除。
type Coordinator struct {
	mu    sync.Mutex
	reg   *Registry
	calls map[string]*models.Call
}

func NewCoordinator(reg *Registry) *Coordinator {
	return &Coordinator{reg: reg, calls: make(map[string]*models.Call)}
}

// Initiate 向在线目标发起通话。同一对连接之间最多只允许一路活跃通话。
func (c *Coordinator) Initiate(callerID, targetID string, mode models.CallMode) (models.Call, error) {
	if !mode.Valid() {
		return models.Call{}, ErrBadMode
	}
	if !c.reg.IsOnline(targetID) {
		return models.Call{}, ErrTargetOffline
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.Has(callerID) && call.Has(targetID) {
			return models.Call{}, ErrPairBusy
		}
	}
	call := &models.Call{
		Token:     uuid.NewString(),
		CallerID:  callerID,
		TargetID:  targetID,
		Mode:      mode,
		State:     models.CallRinging,
		StartedAt: time.Now(),
	}
	c.calls[call.Token] = call
	return *call, nil
}

// Respond 接听或拒绝。token 不再有效时返回 false:
// 应答与断开之间的竞争是正常现象,不作为错误。
func (c *Coordinator) Respond(token string, accepted bool) (models.Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[token]
	if !ok || call.State != models.CallRinging {
		return models.Call{}, false
	}
	if accepted {
		call.State = models.CallAccepted
		return *call, true
	}
	call.State = models.CallDeclined
	delete(c.calls, token)
	return *call, true
}

// End 由参与方挂断,返回需要收到通知的对端。非参与方或未知 token 为空操作。
func (c *Coordinator) End(token, requesterID string) (models.Call, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[token]
	if !ok {
		return models.Call{}, "", false
	}
	peer, ok := call.Peer(requesterID)
	if !ok {
		return models.Call{}, "", false
	}
	call.State = models.CallEnded
	delete(c.calls, token)
	return *call, peer, true
}

// Live 查询 token 对应的活跃通话。
func (c *Coordinator) Live(token string) (models.Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[token]
	if !ok {
		return models.Call{}, false
	}
	return *call, true
}

// Teardown 清理 connID 参与的所有活跃通话,返回每路通话及其待通知的对端。
// 由注册表的断开监听器触发。
func (c *Coordinator) Teardown(connID string) []TornDown {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []TornDown
	for token, call := range c.calls {
		peer, ok := call.Peer(connID)
		if !ok {
			continue
		}
		call.State = models.CallEnded
		delete(c.calls, token)
		out = append(out, TornDown{Call: *call, PeerID: peer})
	}
	return out
}

// TornDown 断开清理产出的一条通知。
type TornDown struct {
	Call   models.Call
	PeerID string
}

// Active 当前活跃通话数,供指标上报。
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
