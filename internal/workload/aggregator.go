package workload

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

// Store 是聚合器需要的只读视图，读取要么看到旧状态要么看到新状态，
// 不会看到半关半开的中间态（写入方保证）
type Store interface {
	GetCurrentAssignmentsByPerson(ctx context.Context, personID int64) ([]*domain.Assignment, error)
}

// Aggregator 按需计算派生视图，不做任何持久化缓存
type Aggregator struct {
	cfg   *config.Config
	store Store
}

func NewAggregator(cfg *config.Config, store Store) *Aggregator {
	return &Aggregator{
		cfg:   cfg,
		store: store,
	}
}

func (g *Aggregator) classify(total decimal.Decimal) domain.WorkloadStatus {
	under := decimal.NewFromFloat(g.cfg.Workload.UnderUtilizedBelow)
	high := decimal.NewFromFloat(g.cfg.Workload.HighAbove)
	overloaded := decimal.NewFromFloat(g.cfg.Workload.OverloadedAbove)

	switch {
	case total.GreaterThan(overloaded):
		return domain.WorkloadOverloaded
	case total.GreaterThan(high):
		return domain.WorkloadHigh
	case total.GreaterThanOrEqual(under):
		return domain.WorkloadOptimal
	default:
		return domain.WorkloadUnderUtilized
	}
}

// ReportForPerson 汇总某人全部生效任职。没有任何生效记录时
// 返回中性的空报告，而不是错误。
func (g *Aggregator) ReportForPerson(ctx context.Context, personID int64) (*domain.WorkloadReport, error) {
	rows, err := g.store.GetCurrentAssignmentsByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	report := &domain.WorkloadReport{
		PersonID:        personID,
		TotalPercentage: decimal.Zero,
		Recommendations: []string{},
		Units:           []domain.UnitWorkload{},
	}

	if len(rows) == 0 {
		report.Status = domain.WorkloadUnassigned
		return report, nil
	}

	unitIndex := map[int64]int{}
	jobTitles := map[int64]bool{}

	for _, row := range rows {
		report.AssignmentCount++
		report.TotalPercentage = report.TotalPercentage.Add(row.Percentage)
		jobTitles[row.JobTitleID] = true
		if row.IsAdInterim {
			report.InterimCount++
		}
		if row.IsUnitBoss {
			report.UnitBossCount++
		}

		idx, ok := unitIndex[row.UnitID]
		if !ok {
			idx = len(report.Units)
			unitIndex[row.UnitID] = idx
			report.Units = append(report.Units, domain.UnitWorkload{
				UnitID:          row.UnitID,
				TotalPercentage: decimal.Zero,
			})
		}
		report.Units[idx].AssignmentCount++
		report.Units[idx].TotalPercentage = report.Units[idx].TotalPercentage.Add(row.Percentage)
	}

	report.DistinctUnitCount = len(report.Units)
	report.DistinctJobTitleCount = len(jobTitles)
	report.Status = g.classify(report.TotalPercentage)

	switch report.Status {
	case domain.WorkloadOverloaded:
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("总占比 %s 超过阈值 %v，建议削减任职或降低占比", report.TotalPercentage, g.cfg.Workload.OverloadedAbove))
	case domain.WorkloadHigh:
		report.Recommendations = append(report.Recommendations,
			"总占比接近上限，谨慎安排新任职")
	case domain.WorkloadUnderUtilized:
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("总占比 %s 低于 %v，可考虑增加任职", report.TotalPercentage, g.cfg.Workload.UnderUtilizedBelow))
	}
	if report.InterimCount > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("存在 %d 个临时代理任职，建议尽快安排正式任命", report.InterimCount))
	}

	return report, nil
}
