package service

import "github.com/yosefanaliza/black-coordinates-list/internal/core/model"

// OutcomeStatus 解析结果类别
type OutcomeStatus int

const (
	// OutcomeSuccess 已解析并保存
	OutcomeSuccess OutcomeStatus = iota + 1
	// OutcomeLookupFailed 地理位置查询失败，未尝试保存
	OutcomeLookupFailed
	// OutcomeStorageFailed 已解析但保存失败，坐标仍然返回
	OutcomeStorageFailed
)

// String 返回类别名，用作指标标签
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeLookupFailed:
		return "lookup_failed"
	case OutcomeStorageFailed:
		return "storage_failed"
	default:
		return "unknown"
	}
}

// Outcome 一次解析的结果。Status为OutcomeSuccess或OutcomeStorageFailed时Coordinates非空。
type Outcome struct {
	Status      OutcomeStatus
	IP          string
	Coordinates *model.GeoCoordinates
}

// Succeeded 是否完整成功
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// Message 返回给调用方的提示
func (o Outcome) Message() string {
	switch o.Status {
	case OutcomeSuccess:
		return "IP resolved and coordinates stored successfully"
	case OutcomeLookupFailed:
		return "Failed to resolve IP address from external service"
	case OutcomeStorageFailed:
		return "IP resolved but failed to store coordinates"
	default:
		return "Internal server error"
	}
}
