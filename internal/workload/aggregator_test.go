package workload

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

type stubStore struct {
	rows []*domain.Assignment
}

func (s *stubStore) GetCurrentAssignmentsByPerson(_ context.Context, personID int64) ([]*domain.Assignment, error) {
	current := []*domain.Assignment{}
	for _, row := range s.rows {
		if row.PersonID == personID {
			current = append(current, row)
		}
	}
	return current, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workload.MaxPercentage = 1.0
	cfg.Workload.UnderUtilizedBelow = 0.5
	cfg.Workload.HighAbove = 0.9
	cfg.Workload.OverloadedAbove = 1.0
	return cfg
}

func TestReportForPersonUnassigned(t *testing.T) {
	agg := NewAggregator(testConfig(), &stubStore{})

	report, err := agg.ReportForPerson(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, domain.WorkloadUnassigned, report.Status)
	require.Equal(t, 0, report.AssignmentCount)
	require.True(t, report.TotalPercentage.IsZero())
	require.Empty(t, report.Units)
}

func TestReportForPersonOverloaded(t *testing.T) {
	store := &stubStore{rows: []*domain.Assignment{
		{ID: 1, PersonID: 1, UnitID: 10, JobTitleID: 1, Percentage: decimal.NewFromFloat(0.6), IsCurrent: true},
		{ID: 2, PersonID: 1, UnitID: 20, JobTitleID: 2, Percentage: decimal.NewFromFloat(0.5), IsAdInterim: true, IsCurrent: true},
	}}
	agg := NewAggregator(testConfig(), store)

	report, err := agg.ReportForPerson(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, domain.WorkloadOverloaded, report.Status)
	require.True(t, decimal.NewFromFloat(1.1).Equal(report.TotalPercentage))
	require.Equal(t, 2, report.AssignmentCount)
	require.Equal(t, 2, report.DistinctUnitCount)
	require.Equal(t, 2, report.DistinctJobTitleCount)
	require.Equal(t, 1, report.InterimCount)

	// 超载和临时代理各产生一条建议
	require.Len(t, report.Recommendations, 2)
	require.Len(t, report.Units, 2)
}

func TestReportGroupsByUnit(t *testing.T) {
	// 同一单元下两个职位的占比合并到一个分组
	store := &stubStore{rows: []*domain.Assignment{
		{ID: 1, PersonID: 1, UnitID: 10, JobTitleID: 1, Percentage: decimal.NewFromFloat(0.3), IsCurrent: true},
		{ID: 2, PersonID: 1, UnitID: 10, JobTitleID: 2, Percentage: decimal.NewFromFloat(0.4), IsCurrent: true},
	}}
	agg := NewAggregator(testConfig(), store)

	report, err := agg.ReportForPerson(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.DistinctUnitCount)
	require.Len(t, report.Units, 1)
	require.Equal(t, int64(10), report.Units[0].UnitID)
	require.Equal(t, 2, report.Units[0].AssignmentCount)
	require.True(t, decimal.NewFromFloat(0.7).Equal(report.Units[0].TotalPercentage))
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		want       domain.WorkloadStatus
	}{
		{name: "低于下限", percentage: 0.49, want: domain.WorkloadUnderUtilized},
		{name: "恰好下限", percentage: 0.5, want: domain.WorkloadOptimal},
		{name: "恰好高位阈值", percentage: 0.9, want: domain.WorkloadOptimal},
		{name: "高位", percentage: 0.95, want: domain.WorkloadHigh},
		{name: "恰好上限", percentage: 1.0, want: domain.WorkloadHigh},
		{name: "超载", percentage: 1.05, want: domain.WorkloadOverloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{rows: []*domain.Assignment{
				{ID: 1, PersonID: 1, UnitID: 10, JobTitleID: 1, Percentage: decimal.NewFromFloat(tt.percentage), IsCurrent: true},
			}}
			agg := NewAggregator(testConfig(), store)

			report, err := agg.ReportForPerson(context.Background(), 1)
			require.NoError(t, err)
			require.Equal(t, tt.want, report.Status)
		})
	}
}
