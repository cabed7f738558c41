package geolocation

import "fmt"

// Kind 查询失败的类别
type Kind int

const (
	// KindTimeout 单次请求超时
	KindTimeout Kind = iota + 1
	// KindConnection 连接失败
	KindConnection
	// KindHTTPStatus 服务返回非200状态码
	KindHTTPStatus
	// KindRejected 服务返回 status != "success"
	KindRejected
	// KindMalformed 响应无法解析或缺少有效坐标
	KindMalformed
)

// String 返回类别名，同时用作日志和指标标签
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection_error"
	case KindHTTPStatus:
		return "http_status"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// LookupError 查询失败的结果
type LookupError struct {
	IP         string
	Kind       Kind
	Attempts   int
	StatusCode int
	Message    string
	Err        error
}

// Error 实现error接口
func (e *LookupError) Error() string {
	msg := fmt.Sprintf("地理位置查询失败 [%s] %s", e.IP, e.Kind)
	switch {
	case e.StatusCode != 0:
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	case e.Message != "":
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 返回底层错误
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Retryable 超时和连接失败可以重试，其余失败不重试
func (e *LookupError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindConnection
}
