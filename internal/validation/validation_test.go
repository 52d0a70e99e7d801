package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

func testLimits() Limits {
	return Limits{
		MaxPercentage:     decimal.NewFromFloat(1.0),
		OverloadThreshold: decimal.NewFromFloat(1.0),
	}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func datePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	d := date(t, s)
	return &d
}

func requireViolation(t *testing.T, err error, code domain.ViolationCode) {
	t.Helper()
	require.Error(t, err)

	validationErr := &domain.ValidationError{}
	require.True(t, errors.As(err, &validationErr))

	for _, v := range validationErr.Violations {
		if v.Code == code {
			return
		}
	}
	t.Fatalf("期望包含违规 %s，实际为 %v", code, validationErr.Violations)
}

func TestCheckPercentage(t *testing.T) {
	lim := testLimits()

	// 恰好等于上限是合法的
	require.NoError(t, CheckPercentage(decimal.NewFromFloat(1.0), lim))
	require.NoError(t, CheckPercentage(decimal.NewFromFloat(0.5), lim))

	requireViolation(t, CheckPercentage(decimal.Zero, lim), domain.ViolationInvalidPercentage)
	requireViolation(t, CheckPercentage(decimal.NewFromFloat(-0.1), lim), domain.ViolationInvalidPercentage)
	requireViolation(t, CheckPercentage(decimal.NewFromFloat(1.01), lim), domain.ViolationInvalidPercentage)
}

func TestCheckCreate(t *testing.T) {
	lim := testLimits()
	history := []*domain.Assignment{
		{
			Version:   1,
			ValidFrom: date(t, "2024-01-01"),
			ValidTo:   datePtr(t, "2024-06-30"),
		},
	}

	// 闭区间：6 月 30 日仍属于旧窗口
	requireViolation(t,
		CheckCreate(history, date(t, "2024-06-30"), decimal.NewFromFloat(0.5), lim),
		domain.ViolationOverlappingWindow)

	require.NoError(t, CheckCreate(history, date(t, "2024-07-01"), decimal.NewFromFloat(0.5), lim))
	require.NoError(t, CheckCreate(nil, date(t, "2024-01-01"), decimal.NewFromFloat(0.5), lim))
}

func TestCheckTransition(t *testing.T) {
	lim := testLimits()
	current := &domain.Assignment{
		Version:   1,
		ValidFrom: date(t, "2024-01-01"),
		IsCurrent: true,
	}

	require.NoError(t, CheckTransition(current, date(t, "2024-01-02"), decimal.NewFromFloat(0.5), lim))

	// 生效日期和当前行同日会产生空窗口
	requireViolation(t,
		CheckTransition(current, date(t, "2024-01-01"), decimal.NewFromFloat(0.5), lim),
		domain.ViolationOverlappingWindow)
	requireViolation(t,
		CheckTransition(current, date(t, "2023-12-31"), decimal.NewFromFloat(0.5), lim),
		domain.ViolationOverlappingWindow)
}

func TestCheckTermination(t *testing.T) {
	current := &domain.Assignment{
		Version:   1,
		ValidFrom: date(t, "2024-01-01"),
		IsCurrent: true,
	}

	// 同日终止是合法的（单日任职）
	require.NoError(t, CheckTermination(current, date(t, "2024-01-01")))
	require.NoError(t, CheckTermination(current, date(t, "2024-06-30")))

	requireViolation(t,
		CheckTermination(current, date(t, "2023-12-31")),
		domain.ViolationOverlappingWindow)
}

func TestCheckWorkload(t *testing.T) {
	lim := testLimits()
	current := []*domain.Assignment{
		{ID: 1, Percentage: decimal.NewFromFloat(0.6)},
	}

	warnings := CheckWorkload(current, 0, decimal.NewFromFloat(0.5), lim)
	require.Len(t, warnings, 1)
	require.Equal(t, domain.ViolationWorkloadExceeded, warnings[0].Code)

	// 总占比不超过阈值时没有警告
	require.Empty(t, CheckWorkload(current, 0, decimal.NewFromFloat(0.4), lim))

	// modify 时排除即将被关闭的旧行
	require.Empty(t, CheckWorkload(current, 1, decimal.NewFromFloat(0.8), lim))
}

func TestCheckHistory(t *testing.T) {
	valid := []*domain.Assignment{
		{Version: 1, ValidFrom: date(t, "2024-01-01"), ValidTo: datePtr(t, "2024-06-30")},
		{Version: 2, ValidFrom: date(t, "2024-07-01"), IsCurrent: true},
	}
	require.NoError(t, CheckHistory(valid))
	require.NoError(t, CheckHistory(nil))

	// 版本号有缺口
	gapped := []*domain.Assignment{
		{Version: 1, ValidFrom: date(t, "2024-01-01"), ValidTo: datePtr(t, "2024-06-30")},
		{Version: 3, ValidFrom: date(t, "2024-07-01"), IsCurrent: true},
	}
	requireViolation(t, CheckHistory(gapped), domain.ViolationOutOfOrderVersion)

	// 相邻窗口相交
	overlapping := []*domain.Assignment{
		{Version: 1, ValidFrom: date(t, "2024-01-01"), ValidTo: datePtr(t, "2024-07-01")},
		{Version: 2, ValidFrom: date(t, "2024-07-01"), IsCurrent: true},
	}
	requireViolation(t, CheckHistory(overlapping), domain.ViolationOverlappingWindow)

	// 生效行不是最后一行
	misplacedCurrent := []*domain.Assignment{
		{Version: 1, ValidFrom: date(t, "2024-01-01"), IsCurrent: true},
		{Version: 2, ValidFrom: date(t, "2024-07-01"), ValidTo: datePtr(t, "2024-12-31")},
	}
	requireViolation(t, CheckHistory(misplacedCurrent), domain.ViolationOutOfOrderVersion)

	// 生效行的窗口必须未关闭
	closedCurrent := []*domain.Assignment{
		{Version: 1, ValidFrom: date(t, "2024-01-01"), ValidTo: datePtr(t, "2024-06-30"), IsCurrent: true},
	}
	requireViolation(t, CheckHistory(closedCurrent), domain.ViolationOverlappingWindow)
}
