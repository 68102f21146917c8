package chat

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vyleayush/Talksy/internal/config"
	"github.com/vyleayush/Talksy/internal/metrics"
	"github.com/vyleayush/Talksy/internal/models"
)

// Room 聚合核心组件并按入站事件分发:注册表、有界日志、通话协调器、
// 信令转发都在这里接到事件。每个入站事件处理到底(状态变更加广播)
// 之后才轮到同一连接的下一个事件,分发层的投递从不阻塞这里。
type Room struct {
	reg      *Registry
	log      *Log
	calls    *Coordinator
	relay    *Relay
	presence *Presence
	sender   Sender
}

func NewRoom(cfg config.Config, sender Sender) *Room {
	reg := NewRegistry(cfg.DisconnectGrace)
	msgLog := NewLog(reg, cfg.HistoryLimit)
	calls := NewCoordinator(reg)
	r := &Room{
		reg:      reg,
		log:      msgLog,
		calls:    calls,
		relay:    NewRelay(calls),
		presence: NewPresence(reg, msgLog, sender),
		sender:   sender,
	}
	// 注册表不直接依赖协调器:断开时经监听器向上调用清理通话。
	reg.OnDisconnect(r.teardownCalls)
	reg.OnPurged(func(string) { r.presence.RefreshRoster() })
	return r
}

// HandleInbound 解码并分发一帧入站事件。类型集合是封闭的,
// 未知类型只回发错误提示,绝不让未处理的 kind 流向其他客户端。
func (r *Room) HandleInbound(connID string, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.sender.Unicast(connID, errorEvent("Malformed event."))
		return
	}
	switch env.Type {
	case InJoin:
		var p joinPayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleJoin(connID, p)
		}
	case InSendMessage:
		var p sendMessagePayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleSendMessage(connID, p)
		}
	case InTypingStart:
		r.handleTyping(connID, true)
	case InTypingStop:
		r.handleTyping(connID, false)
	case InInitiateCall:
		var p initiateCallPayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleInitiateCall(connID, p)
		}
	case InCallResponse:
		var p callResponsePayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleCallResponse(connID, p)
		}
	case InEndCall:
		var p endCallPayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleEndCall(connID, p)
		}
	case InOffer, InAnswer, InICECandidate:
		var p signalPayload
		if json.Unmarshal(raw, &p) == nil {
			r.handleSignal(connID, env.Type, p)
		}
	default:
		r.sender.Unicast(connID, errorEvent("Unknown event type."))
	}
}

// HandleDisconnect 传输层断开路径,非客户端主动发出。幂等。
func (r *Room) HandleDisconnect(connID string) {
	conn, changed := r.reg.MarkOffline(connID)
	if !changed {
		return
	}
	log.Info().Str("conn_id", connID).Str("username", conn.Username).Msg("user disconnected")
	r.presence.AnnounceLeave(conn)
}

// Close 停止注册表的宽限期定时器,进程退出时调用。
func (r *Room) Close() {
	r.reg.Close()
}

func (r *Room) handleJoin(connID string, p joinPayload) {
	conn, err := r.reg.Register(connID, p.Username, p.Avatar)
	if err != nil {
		r.sender.Unicast(connID, errorEvent("Invalid username. Use 2-20 letters, digits, underscores or spaces."))
		return
	}
	log.Info().Str("conn_id", connID).Str("username", conn.Username).Msg("user joined")
	r.presence.AnnounceJoin(conn)
}

func (r *Room) handleSendMessage(connID string, p sendMessagePayload) {
	kind := p.Kind
	if kind == "" {
		kind = models.KindText
	}
	if !kind.Valid() {
		r.sender.Unicast(connID, errorEvent("Unknown message kind."))
		return
	}
	var media *models.MediaRef
	if kind != models.KindText {
		media = &models.MediaRef{URL: p.FileURL, OriginalName: p.FileName, SizeBytes: p.FileSize}
	}
	msg, err := r.log.Append(connID, kind, p.Message, media)
	if err != nil {
		r.sender.Unicast(connID, errorEvent("User not found. Please rejoin the chat."))
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(kind)).Inc()
	r.sender.BroadcastAll(MessageEvent{Type: "new-message", MessageView: messageView(msg)})
}

func (r *Room) handleTyping(connID string, isTyping bool) {
	conn, ok := r.reg.Get(connID)
	if !ok {
		r.sender.Unicast(connID, errorEvent("User not found. Please rejoin the chat."))
		return
	}
	r.presence.AnnounceTyping(conn, isTyping)
}

func (r *Room) handleInitiateCall(connID string, p initiateCallPayload) {
	caller, ok := r.reg.Get(connID)
	if !ok {
		r.sender.Unicast(connID, errorEvent("User not found. Please rejoin the chat."))
		return
	}
	call, err := r.calls.Initiate(connID, p.TargetID, p.Mode)
	if err != nil {
		switch {
		case errors.Is(err, ErrTargetOffline):
			r.sender.Unicast(connID, errorEvent("User is not available."))
		case errors.Is(err, ErrPairBusy):
			r.sender.Unicast(connID, errorEvent("Already in a call with this user."))
		default:
			r.sender.Unicast(connID, errorEvent("Could not start the call."))
		}
		return
	}
	metrics.CallsActive.Inc()
	log.Info().Str("call_token", call.Token).Str("caller", connID).
		Str("target", p.TargetID).Str("mode", string(call.Mode)).Msg("call initiated")
	r.sender.Unicast(call.TargetID, IncomingCallEvent{
		Type:         "incoming-call",
		CallToken:    call.Token,
		CallerID:     caller.ID,
		CallerName:   caller.Username,
		CallerAvatar: caller.Avatar,
		Mode:         call.Mode,
	})
	r.sender.Unicast(connID, CallInitiatedEvent{
		Type:      "call-initiated",
		CallToken: call.Token,
		TargetID:  call.TargetID,
		Mode:      call.Mode,
	})
}

func (r *Room) handleCallResponse(connID string, p callResponsePayload) {
	call, ok := r.calls.Respond(p.CallToken, p.Accepted)
	if !ok {
		// 应答和断开正常竞争,陈旧 token 静默忽略
		return
	}
	if p.Accepted {
		evt := CallAcceptedEvent{Type: "call-accepted", CallToken: call.Token}
		r.sender.Unicast(call.CallerID, evt)
		r.sender.Unicast(call.TargetID, evt)
		return
	}
	metrics.CallsActive.Dec()
	metrics.CallsTotal.WithLabelValues(string(call.Mode), "declined").Inc()
	r.sender.Unicast(call.CallerID, CallDeclinedEvent{Type: "call-declined", CallToken: call.Token})
}

func (r *Room) handleEndCall(connID string, p endCallPayload) {
	call, peer, ok := r.calls.End(p.CallToken, connID)
	if !ok {
		return
	}
	metrics.CallsActive.Dec()
	metrics.CallsTotal.WithLabelValues(string(call.Mode), "ended").Inc()
	r.sender.Unicast(peer, CallEndedEvent{Type: "call-ended", CallToken: call.Token})
}

func (r *Room) handleSignal(connID string, kind InboundType, p signalPayload) {
	evt, ok := r.relay.Forward(kind, p.CallToken, connID, p.TargetID, p.Payload)
	if !ok {
		return
	}
	metrics.SignalsRelayedTotal.WithLabelValues(string(kind)).Inc()
	r.sender.Unicast(p.TargetID, evt)
}

// teardownCalls 断开清理:挂断断开方参与的全部通话并通知对端。
func (r *Room) teardownCalls(connID string) {
	for _, td := range r.calls.Teardown(connID) {
		metrics.CallsActive.Dec()
		metrics.CallsTotal.WithLabelValues(string(td.Call.Mode), "peer-disconnected").Inc()
		r.sender.Unicast(td.PeerID, CallEndedEvent{
			Type:      "call-ended",
			CallToken: td.Call.Token,
			Reason:    "peer-disconnected",
		})
	}
}
