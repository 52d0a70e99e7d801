package domain

import (
	"errors"
	"fmt"
	"strings"
)

// 并发与生命周期错误，调用方通过 errors.Is 区分后决定重试还是提示用户
var (
	ErrSlotAlreadyActive  = errors.New("该 slot 已存在生效中的任职记录")
	ErrStaleVersion       = errors.New("目标版本行已被并发操作关闭")
	ErrAlreadyTerminated  = errors.New("目标版本行已经终止")
	ErrAssignmentNotFound = errors.New("任职记录不存在")
	ErrSlotStillActive    = errors.New("该 slot 仍有生效中的任职记录，不允许清除历史")
)

// 引用完整性错误，写入前检查，和校验错误区分开以便上层分别提示
var (
	ErrUnknownPerson    = errors.New("引用的人员不存在")
	ErrUnknownUnit      = errors.New("引用的部门不存在")
	ErrUnknownJobTitle  = errors.New("引用的职位不存在")
	ErrEntityReferenced = errors.New("存在生效中的任职记录引用该实体，不允许删除")
)

type ViolationCode string

const (
	ViolationInvalidPercentage ViolationCode = "INVALID_PERCENTAGE"
	ViolationOverlappingWindow ViolationCode = "OVERLAPPING_WINDOW"
	ViolationOutOfOrderVersion ViolationCode = "OUT_OF_ORDER_VERSION"
	// 软性违规：只作为警告附加在成功结果上，不会中止写入
	ViolationWorkloadExceeded ViolationCode = "WORKLOAD_EXCEEDED"
)

type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// ValidationError 汇总写入前校验的所有硬性违规
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return "校验失败: " + strings.Join(msgs, "; ")
}
