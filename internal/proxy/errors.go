package proxy

import "errors"

var (
	// ErrTunnelUnsupported 表示收到 CONNECT 请求。
	ErrTunnelUnsupported = errors.New("CONNECT tunnelling is not supported")
	// ErrUnsupportedMethod 表示 GET/HEAD 之外的方法。
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrMalformedRequest 表示请求行无法解析。
	ErrMalformedRequest = errors.New("malformed request line")
	// ErrOffline 表示离线模式下请求了未缓存的目录或 metadata。
	ErrOffline = errors.New("offline mode")
)
