package chat

import "encoding/json"

// Relay 在通话双方之间透传 WebRTC 协商载荷(offer/answer/ice-candidate),
// 载荷本身对服务端完全不透明,媒体字节永远不经过这里。
//
// 与最初的宽松设计不同,这里收紧了校验:token 必须指向活跃通话,
// 发送方与目标必须正好是这路通话的两端。不满足时静默丢弃,
// 与 respond/end 的陈旧引用语义保持一致。
type Relay struct {
	calls *Coordinator
}

func NewRelay(calls *Coordinator) *Relay {
	return &Relay{calls: calls}
}

// Forward 构造转发给目标的信令事件。丢弃时返回 false,不产生任何通知。
func (r *Relay) Forward(kind InboundType, token, senderID, destID string, payload json.RawMessage) (SignalEvent, bool) {
	switch kind {
	case InOffer, InAnswer, InICECandidate:
	default:
		return SignalEvent{}, false
	}
	call, ok := r.calls.Live(token)
	if !ok {
		return SignalEvent{}, false
	}
	if !call.Has(senderID) || !call.Has(destID) || senderID == destID {
		return SignalEvent{}, false
	}
	return SignalEvent{
		Type:      string(kind),
		CallToken: token,
		SenderID:  senderID,
		Payload:   payload,
	}, true
}
