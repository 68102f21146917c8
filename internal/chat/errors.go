package chat

import "errors"

// 核心层通用错误,分发处据此决定回给客户端的提示。
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrNotRegistered   = errors.New("not registered")
	ErrTargetOffline   = errors.New("target offline")
	ErrPairBusy        = errors.New("pair busy")
	ErrBadMode         = errors.New("bad call mode")
)
