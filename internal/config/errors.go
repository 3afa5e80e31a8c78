package config

import "fmt"

// FieldError 提供配置键与错误原因，便于 CLI 向用户反馈。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 创建包含配置键与原因的 error，便于 CLI 定位。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// repoField 用于拼接上游列表中的单项路径，输出 remote.repos[1] 形式。
func repoField(idx int) string {
	return fmt.Sprintf("remote.repos[%d]", idx)
}
