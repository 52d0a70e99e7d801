package interchange

import (
	"context"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

type ExportStore interface {
	GetCurrentAssignmentsByPerson(ctx context.Context, personID int64) ([]*domain.Assignment, error)
	ListCurrentAssignments(ctx context.Context) ([]*domain.Assignment, error)
	GetAllPersons(ctx context.Context) ([]*domain.Person, error)
	GetAllUnits(ctx context.Context) ([]*domain.Unit, error)
	GetAllJobTitles(ctx context.Context) ([]*domain.JobTitle, error)
}

type Exporter struct {
	store ExportStore
}

func NewExporter(store ExportStore) *Exporter {
	return &Exporter{
		store: store,
	}
}

// RecordFromAssignment 把版本行转成行式导出记录，外键保留为 id
func RecordFromAssignment(a *domain.Assignment) domain.AssignmentRecord {
	rec := domain.AssignmentRecord{
		PersonID:    a.PersonID,
		UnitID:      a.UnitID,
		JobTitleID:  a.JobTitleID,
		Percentage:  a.Percentage.InexactFloat64(),
		IsAdInterim: a.IsAdInterim,
		IsUnitBoss:  a.IsUnitBoss,
		Notes:       a.Notes,
		ValidFrom:   a.ValidFrom.Format("2006-01-02"),
	}
	if a.ValidTo != nil {
		rec.ValidTo = a.ValidTo.Format("2006-01-02")
	}
	return rec
}

// CurrentForPerson 导出某人全部生效记录的行式形式。
// 用 skip 策略重新导入这份输出不会产生任何新行。
func (ex *Exporter) CurrentForPerson(ctx context.Context, personID int64) ([]domain.AssignmentRecord, error) {
	rows, err := ex.store.GetCurrentAssignmentsByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AssignmentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, RecordFromAssignment(row))
	}
	return records, nil
}

// Document 生成层级式导出文档：任职集合和兄弟实体集合并列，
// 头部带数量和时间戳
func (ex *Exporter) Document(ctx context.Context) (*domain.ExportDocument, error) {
	persons, err := ex.store.GetAllPersons(ctx)
	if err != nil {
		return nil, err
	}
	units, err := ex.store.GetAllUnits(ctx)
	if err != nil {
		return nil, err
	}
	jobTitles, err := ex.store.GetAllJobTitles(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.store.ListCurrentAssignments(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AssignmentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, RecordFromAssignment(row))
	}

	return &domain.ExportDocument{
		Metadata: domain.ExportMetadata{
			GeneratedAt:     time.Now().UTC(),
			PersonCount:     len(persons),
			UnitCount:       len(units),
			JobTitleCount:   len(jobTitles),
			AssignmentCount: len(records),
		},
		Persons:     persons,
		Units:       units,
		JobTitles:   jobTitles,
		Assignments: records,
	}, nil
}
