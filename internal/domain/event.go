package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssignmentEventType string

const (
	EventAssignmentCreated    AssignmentEventType = "assignment.created"
	EventAssignmentVersioned  AssignmentEventType = "assignment.versioned"
	EventAssignmentTerminated AssignmentEventType = "assignment.terminated"
)

// AssignmentEvent 在每次成功提交后发布到消息队列，供通知等下游消费
type AssignmentEvent struct {
	Type          AssignmentEventType `json:"type"`
	AssignmentID  int64               `json:"assignmentID"`
	PersonID      int64               `json:"personID"`
	UnitID        int64               `json:"unitID"`
	JobTitleID    int64               `json:"jobTitleID"`
	Version       int32               `json:"version"`
	Percentage    decimal.Decimal     `json:"percentage"`
	EffectiveDate time.Time           `json:"effectiveDate"`
	Warnings      []Violation         `json:"warnings,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}
