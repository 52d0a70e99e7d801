package versioning

import (
	"context"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

// Store 是引擎持有的存储句柄，由构造时显式注入。
// 写原语只允许引擎调用；repository.Repository 是数据库实现，
// MemoryStore 是测试和演示用的内存实现。
type Store interface {
	GetAssignmentByID(ctx context.Context, id int64) (*domain.Assignment, error)
	GetCurrentAssignment(ctx context.Context, slot domain.Slot) (*domain.Assignment, error)
	GetSlotHistory(ctx context.Context, slot domain.Slot) ([]*domain.Assignment, error)
	GetCurrentAssignmentsByPerson(ctx context.Context, personID int64) ([]*domain.Assignment, error)

	// InsertAssignment 新开生效行，版本号延续该 slot 已用过的最大版本；
	// slot 已有生效行时返回 ErrSlotAlreadyActive
	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	// ReplaceCurrentAssignment 原子地关闭旧行并插入新版本行；
	// 旧行已不是生效行时返回 ErrStaleVersion，且不留下任何半写状态
	ReplaceCurrentAssignment(ctx context.Context, currentID int64, validTo time.Time, next *domain.Assignment) error
	// CloseAssignment 终止生效行；行已关闭时返回 ErrAlreadyTerminated
	CloseAssignment(ctx context.Context, id int64, validTo time.Time) error
	// UpdateAssignmentInPlace 原地覆盖生效行，仅供导入的 update 策略使用
	UpdateAssignmentInPlace(ctx context.Context, a *domain.Assignment) error
	// PurgeSlot 删除整个 slot 的历史；仍有生效行时返回 ErrSlotStillActive
	PurgeSlot(ctx context.Context, slot domain.Slot) (int64, error)

	PersonExists(ctx context.Context, id int64) (bool, error)
	UnitExists(ctx context.Context, id int64) (bool, error)
	JobTitleExists(ctx context.Context, id int64) (bool, error)
}
