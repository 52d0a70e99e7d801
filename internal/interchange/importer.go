package interchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
	"github.com/mancio76/OrgChartV2-sub001/internal/versioning"
)

// ConflictPolicy 决定导入记录命中已有 slot 时的处理方式
type ConflictPolicy string

const (
	PolicySkip ConflictPolicy = "skip"
	// PolicyUpdate 直接覆盖当前行，绕过历史化，仅用于维护性修正
	PolicyUpdate ConflictPolicy = "update"
	// PolicyCreateVersion 走引擎的 modify 契约，是唯一保持全部不变量的策略
	PolicyCreateVersion ConflictPolicy = "create-version"
)

// Importer 是批量导入的边界：记录先通过结构校验，再进入版本引擎。
// 文件解析由外部协作方负责，这里只接收强类型记录。
type Importer struct {
	validate   *validator.Validate
	translator ut.Translator
	engine     *versioning.Engine
}

func NewImporter(engine *versioning.Engine) (*Importer, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Importer{
		validate:   validate,
		translator: trans,
		engine:     engine,
	}, nil
}

type ApplyAction string

const (
	ActionCreated   ApplyAction = "created"
	ActionSkipped   ApplyAction = "skipped"
	ActionUpdated   ApplyAction = "updated"
	ActionVersioned ApplyAction = "versioned"
)

type ApplyOutcome struct {
	Action     ApplyAction
	Assignment *domain.Assignment
	Warnings   []domain.Violation
}

// Apply 把一条导入记录按冲突策略落入版本引擎
func (im *Importer) Apply(ctx context.Context, rec domain.AssignmentRecord, policy ConflictPolicy) (*ApplyOutcome, error) {
	if err := im.validate.Struct(rec); err != nil {
		validationErrors := validator.ValidationErrors{}
		if errors.As(err, &validationErrors) {
			// 只返回第一个错误使得提示更清晰
			return nil, fmt.Errorf("导入记录校验失败: %s", validationErrors[0].Translate(im.translator))
		}
		return nil, err
	}

	validFrom, err := time.Parse("2006-01-02", rec.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("导入记录的生效日期无法解析: %w", err)
	}

	in := versioning.CreateInput{
		Slot: domain.Slot{
			PersonID:   rec.PersonID,
			UnitID:     rec.UnitID,
			JobTitleID: rec.JobTitleID,
		},
		Percentage:  decimal.NewFromFloat(rec.Percentage),
		IsAdInterim: rec.IsAdInterim,
		IsUnitBoss:  rec.IsUnitBoss,
		Notes:       rec.Notes,
		ValidFrom:   validFrom,
	}

	cur, err := im.engine.CurrentForSlot(ctx, in.Slot)
	if err != nil && !errors.Is(err, domain.ErrAssignmentNotFound) {
		return nil, err
	}

	if cur == nil {
		result, err := im.engine.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		return &ApplyOutcome{Action: ActionCreated, Assignment: result.Assignment, Warnings: result.Warnings}, nil
	}

	switch policy {
	case PolicySkip:
		return &ApplyOutcome{Action: ActionSkipped, Assignment: cur}, nil

	case PolicyUpdate:
		changes := versioning.ModifyInput{
			Percentage:  &in.Percentage,
			IsAdInterim: &in.IsAdInterim,
			IsUnitBoss:  &in.IsUnitBoss,
			Notes:       &in.Notes,
		}
		updated, err := im.engine.OverwriteCurrent(ctx, cur.ID, changes)
		if err != nil {
			return nil, err
		}
		return &ApplyOutcome{Action: ActionUpdated, Assignment: updated}, nil

	case PolicyCreateVersion:
		result, err := im.engine.ApplyImportedVersion(ctx, in)
		if err != nil {
			return nil, err
		}
		return &ApplyOutcome{Action: ActionVersioned, Assignment: result.Assignment, Warnings: result.Warnings}, nil

	default:
		return nil, fmt.Errorf("不支持的冲突策略: %s", policy)
	}
}
