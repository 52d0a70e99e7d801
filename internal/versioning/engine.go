package versioning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
	"github.com/mancio76/OrgChartV2-sub001/internal/validation"
)

// Publisher 在写入成功提交后发布生命周期事件，发布失败只记日志不影响结果
type Publisher interface {
	Publish(ctx context.Context, event domain.AssignmentEvent) error
}

// Engine 是唯一允许写任职版本行的组件。
// 每个写操作的流程固定为：校验 → 在一个存储事务内写入 → 提交，
// 失败时整体放弃，不会留下半写的行。
type Engine struct {
	cfg       *config.Config
	store     Store
	publisher Publisher
	limits    validation.Limits
}

func NewEngine(cfg *config.Config, store Store, publisher Publisher) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		limits:    validation.LimitsFromConfig(cfg),
	}
}

type CreateInput struct {
	Slot        domain.Slot
	Percentage  decimal.Decimal
	IsAdInterim bool
	IsUnitBoss  bool
	Notes       string
	ValidFrom   time.Time
}

// ModifyInput 中为 nil 的字段表示沿用被关闭行的值
type ModifyInput struct {
	Percentage  *decimal.Decimal
	IsAdInterim *bool
	IsUnitBoss  *bool
	Notes       *string
}

// Result 携带写入后的行和软性警告（例如工作负载超限）
type Result struct {
	Assignment *domain.Assignment
	Warnings   []domain.Violation
}

func (e *Engine) checkReferences(ctx context.Context, slot domain.Slot) error {
	exists, err := e.store.PersonExists(ctx, slot.PersonID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownPerson
	}

	exists, err = e.store.UnitExists(ctx, slot.UnitID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownUnit
	}

	exists, err = e.store.JobTitleExists(ctx, slot.JobTitleID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownJobTitle
	}

	return nil
}

func (e *Engine) publish(ctx context.Context, eventType domain.AssignmentEventType, a *domain.Assignment, effectiveDate time.Time, warnings []domain.Violation) {
	if e.publisher == nil {
		return
	}

	event := domain.AssignmentEvent{
		Type:          eventType,
		AssignmentID:  a.ID,
		PersonID:      a.PersonID,
		UnitID:        a.UnitID,
		JobTitleID:    a.JobTitleID,
		Version:       a.Version,
		Percentage:    a.Percentage,
		EffectiveDate: effectiveDate,
		Warnings:      warnings,
		OccurredAt:    time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.Error("发布任职事件失败", "type", eventType, "assignmentID", a.ID, "error", err)
	}
}

// Create 为一个 slot 新开任职：全新 slot 的版本号为 1，
// 终止后重新任职的 slot 版本号延续上一次用到的版本。
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Result, error) {
	if err := e.checkReferences(ctx, in.Slot); err != nil {
		return nil, err
	}

	cur, err := e.store.GetCurrentAssignment(ctx, in.Slot)
	if err != nil && !errors.Is(err, domain.ErrAssignmentNotFound) {
		return nil, err
	}
	if cur != nil {
		return nil, domain.ErrSlotAlreadyActive
	}

	history, err := e.store.GetSlotHistory(ctx, in.Slot)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckCreate(history, in.ValidFrom, in.Percentage, e.limits); err != nil {
		return nil, err
	}

	personRows, err := e.store.GetCurrentAssignmentsByPerson(ctx, in.Slot.PersonID)
	if err != nil {
		return nil, err
	}
	warnings := validation.CheckWorkload(personRows, 0, in.Percentage, e.limits)

	a := &domain.Assignment{
		PersonID:    in.Slot.PersonID,
		UnitID:      in.Slot.UnitID,
		JobTitleID:  in.Slot.JobTitleID,
		Percentage:  in.Percentage,
		IsAdInterim: in.IsAdInterim,
		IsUnitBoss:  in.IsUnitBoss,
		Notes:       in.Notes,
		ValidFrom:   domain.DateOnly(in.ValidFrom),
		IsCurrent:   true,
	}
	if err := e.store.InsertAssignment(ctx, a); err != nil {
		return nil, err
	}

	e.publish(ctx, domain.EventAssignmentCreated, a, a.ValidFrom, warnings)
	return &Result{Assignment: a, Warnings: warnings}, nil
}

// Modify 原子地关闭当前行并插入版本 +1 的新行，未指定的属性从旧行复制。
// 旧行已被并发操作关闭时返回 ErrStaleVersion。
func (e *Engine) Modify(ctx context.Context, currentRowID int64, changes ModifyInput, effectiveDate time.Time) (*Result, error) {
	cur, err := e.store.GetAssignmentByID(ctx, currentRowID)
	if err != nil {
		return nil, err
	}
	if !cur.IsCurrent {
		return nil, domain.ErrStaleVersion
	}

	percentage := cur.Percentage
	if changes.Percentage != nil {
		percentage = *changes.Percentage
	}
	isAdInterim := cur.IsAdInterim
	if changes.IsAdInterim != nil {
		isAdInterim = *changes.IsAdInterim
	}
	isUnitBoss := cur.IsUnitBoss
	if changes.IsUnitBoss != nil {
		isUnitBoss = *changes.IsUnitBoss
	}
	notes := cur.Notes
	if changes.Notes != nil {
		notes = *changes.Notes
	}

	if err := validation.CheckTransition(cur, effectiveDate, percentage, e.limits); err != nil {
		return nil, err
	}

	personRows, err := e.store.GetCurrentAssignmentsByPerson(ctx, cur.PersonID)
	if err != nil {
		return nil, err
	}
	warnings := validation.CheckWorkload(personRows, cur.ID, percentage, e.limits)

	next := &domain.Assignment{
		PersonID:    cur.PersonID,
		UnitID:      cur.UnitID,
		JobTitleID:  cur.JobTitleID,
		Version:     cur.Version + 1,
		Percentage:  percentage,
		IsAdInterim: isAdInterim,
		IsUnitBoss:  isUnitBoss,
		Notes:       notes,
		ValidFrom:   domain.DateOnly(effectiveDate),
		IsCurrent:   true,
	}

	// 旧窗口关闭在生效日期的前一天，新旧窗口首尾相接且不相交
	validTo := domain.DateOnly(effectiveDate).AddDate(0, 0, -1)
	if err := e.store.ReplaceCurrentAssignment(ctx, cur.ID, validTo, next); err != nil {
		return nil, err
	}

	e.publish(ctx, domain.EventAssignmentVersioned, next, next.ValidFrom, warnings)
	return &Result{Assignment: next, Warnings: warnings}, nil
}

// Terminate 关闭当前行且不插入替代行，slot 变为不生效
func (e *Engine) Terminate(ctx context.Context, currentRowID int64, effectiveDate time.Time) (*domain.Assignment, error) {
	cur, err := e.store.GetAssignmentByID(ctx, currentRowID)
	if err != nil {
		return nil, err
	}
	if !cur.IsCurrent {
		return nil, domain.ErrAlreadyTerminated
	}

	if err := validation.CheckTermination(cur, effectiveDate); err != nil {
		return nil, err
	}

	validTo := domain.DateOnly(effectiveDate)
	if err := e.store.CloseAssignment(ctx, cur.ID, validTo); err != nil {
		return nil, err
	}

	cur.ValidTo = &validTo
	cur.IsCurrent = false

	e.publish(ctx, domain.EventAssignmentTerminated, cur, validTo, nil)
	return cur, nil
}

// ApplyImportedVersion 供导入方的 create-version 冲突策略使用：
// slot 已有生效行时走 Modify 的完整契约，否则退化为 Create
func (e *Engine) ApplyImportedVersion(ctx context.Context, in CreateInput) (*Result, error) {
	cur, err := e.store.GetCurrentAssignment(ctx, in.Slot)
	if err != nil {
		if errors.Is(err, domain.ErrAssignmentNotFound) {
			return e.Create(ctx, in)
		}
		return nil, err
	}

	changes := ModifyInput{
		Percentage:  &in.Percentage,
		IsAdInterim: &in.IsAdInterim,
		IsUnitBoss:  &in.IsUnitBoss,
		Notes:       &in.Notes,
	}
	return e.Modify(ctx, cur.ID, changes, in.ValidFrom)
}

// OverwriteCurrent 原地覆盖当前行，不产生新版本也不发事件。
// 仅供导入的 update 策略做维护性修正，绕过历史化。
func (e *Engine) OverwriteCurrent(ctx context.Context, currentRowID int64, changes ModifyInput) (*domain.Assignment, error) {
	cur, err := e.store.GetAssignmentByID(ctx, currentRowID)
	if err != nil {
		return nil, err
	}
	if !cur.IsCurrent {
		return nil, domain.ErrStaleVersion
	}

	if changes.Percentage != nil {
		if err := validation.CheckPercentage(*changes.Percentage, e.limits); err != nil {
			return nil, err
		}
		cur.Percentage = *changes.Percentage
	}
	if changes.IsAdInterim != nil {
		cur.IsAdInterim = *changes.IsAdInterim
	}
	if changes.IsUnitBoss != nil {
		cur.IsUnitBoss = *changes.IsUnitBoss
	}
	if changes.Notes != nil {
		cur.Notes = *changes.Notes
	}

	if err := e.store.UpdateAssignmentInPlace(ctx, cur); err != nil {
		return nil, err
	}

	return cur, nil
}

// PurgeSlot 不可逆地删除一个已完全历史化的 slot 的全部版本行
func (e *Engine) PurgeSlot(ctx context.Context, slot domain.Slot) (int64, error) {
	return e.store.PurgeSlot(ctx, slot)
}

func (e *Engine) CurrentForSlot(ctx context.Context, slot domain.Slot) (*domain.Assignment, error) {
	return e.store.GetCurrentAssignment(ctx, slot)
}

func (e *Engine) HistoryForSlot(ctx context.Context, slot domain.Slot) ([]*domain.Assignment, error) {
	return e.store.GetSlotHistory(ctx, slot)
}

func (e *Engine) CurrentForPerson(ctx context.Context, personID int64) ([]*domain.Assignment, error) {
	return e.store.GetCurrentAssignmentsByPerson(ctx, personID)
}
