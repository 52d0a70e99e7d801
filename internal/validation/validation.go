package validation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

// Limits 是校验所需的全部可配置边界，保证本包函数是纯函数
type Limits struct {
	MaxPercentage     decimal.Decimal
	OverloadThreshold decimal.Decimal
}

func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MaxPercentage:     decimal.NewFromFloat(cfg.Workload.MaxPercentage),
		OverloadThreshold: decimal.NewFromFloat(cfg.Workload.OverloadedAbove),
	}
}

func checkPercentage(p decimal.Decimal, max decimal.Decimal) *domain.Violation {
	if !p.IsPositive() {
		return &domain.Violation{
			Code:    domain.ViolationInvalidPercentage,
			Message: fmt.Sprintf("占比 %s 必须大于 0", p),
		}
	}
	// 恰好等于上限是合法的
	if p.GreaterThan(max) {
		return &domain.Violation{
			Code:    domain.ViolationInvalidPercentage,
			Message: fmt.Sprintf("占比 %s 超过上限 %s", p, max),
		}
	}
	return nil
}

// CheckPercentage 单独校验占比的硬性边界
func CheckPercentage(p decimal.Decimal, lim Limits) error {
	if v := checkPercentage(p, lim.MaxPercentage); v != nil {
		return &domain.ValidationError{Violations: []domain.Violation{*v}}
	}
	return nil
}

// windowsOverlap 判断两个闭区间日期窗口是否相交，validTo 为 nil 表示窗口未关闭
func windowsOverlap(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && aTo.Before(bFrom) {
		return false
	}
	if bTo != nil && bTo.Before(aFrom) {
		return false
	}
	return true
}

// CheckCreate 校验在已有历史（可能为空）上新开一个生效窗口
func CheckCreate(history []*domain.Assignment, validFrom time.Time, percentage decimal.Decimal, lim Limits) error {
	violations := []domain.Violation{}

	if v := checkPercentage(percentage, lim.MaxPercentage); v != nil {
		violations = append(violations, *v)
	}

	// 新窗口是开放的，不允许和该 slot 的任何历史窗口相交
	validFrom = domain.DateOnly(validFrom)
	for _, row := range history {
		if windowsOverlap(validFrom, nil, row.ValidFrom, row.ValidTo) {
			violations = append(violations, domain.Violation{
				Code: domain.ViolationOverlappingWindow,
				Message: fmt.Sprintf("生效日期 %s 和版本 %d 的窗口相交",
					validFrom.Format("2006-01-02"), row.Version),
			})
		}
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

// CheckTransition 校验对当前行的 modify：新窗口从 effectiveDate 开始，
// 旧窗口关闭在前一天，因此 effectiveDate 必须严格晚于旧行的 valid_from
func CheckTransition(current *domain.Assignment, effectiveDate time.Time, percentage decimal.Decimal, lim Limits) error {
	violations := []domain.Violation{}

	if v := checkPercentage(percentage, lim.MaxPercentage); v != nil {
		violations = append(violations, *v)
	}

	effectiveDate = domain.DateOnly(effectiveDate)
	if !effectiveDate.After(current.ValidFrom) {
		violations = append(violations, domain.Violation{
			Code: domain.ViolationOverlappingWindow,
			Message: fmt.Sprintf("生效日期 %s 必须晚于当前行的起始日期 %s",
				effectiveDate.Format("2006-01-02"), current.ValidFrom.Format("2006-01-02")),
		})
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

// CheckTermination 校验终止：关闭日期不能早于当前行的起始日期
func CheckTermination(current *domain.Assignment, effectiveDate time.Time) error {
	effectiveDate = domain.DateOnly(effectiveDate)
	if effectiveDate.Before(current.ValidFrom) {
		return &domain.ValidationError{Violations: []domain.Violation{{
			Code: domain.ViolationOverlappingWindow,
			Message: fmt.Sprintf("终止日期 %s 不能早于当前行的起始日期 %s",
				effectiveDate.Format("2006-01-02"), current.ValidFrom.Format("2006-01-02")),
		}}}
	}
	return nil
}

// CheckWorkload 是软性校验：某人所有生效记录的总占比超过阈值只产生警告。
// excludeID 用于 modify 时排除即将被关闭的旧行，0 表示不排除。
func CheckWorkload(current []*domain.Assignment, excludeID int64, adding decimal.Decimal, lim Limits) []domain.Violation {
	total := adding
	for _, row := range current {
		if excludeID != 0 && row.ID == excludeID {
			continue
		}
		total = total.Add(row.Percentage)
	}

	if total.GreaterThan(lim.OverloadThreshold) {
		return []domain.Violation{{
			Code: domain.ViolationWorkloadExceeded,
			Message: fmt.Sprintf("总占比 %s 超过阈值 %s",
				total, lim.OverloadThreshold),
		}}
	}
	return nil
}

// CheckHistory 校验一个 slot 的完整版本历史是否满足全部时间不变量：
// 版本号按 valid_from 排序后必须是 1,2,3,… 无缺无重，窗口两两不相交，
// 且最多只有一行 is_current，它必须是最后一行并且窗口未关闭。
func CheckHistory(rows []*domain.Assignment) error {
	if len(rows) == 0 {
		return nil
	}

	sorted := make([]*domain.Assignment, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ValidFrom.Before(sorted[j].ValidFrom) })

	violations := []domain.Violation{}

	for i, row := range sorted {
		if row.Version != int32(i+1) {
			violations = append(violations, domain.Violation{
				Code:    domain.ViolationOutOfOrderVersion,
				Message: fmt.Sprintf("第 %d 行的版本号应为 %d，实际为 %d", i+1, i+1, row.Version),
			})
		}
	}

	currentCount := 0
	for i, row := range sorted {
		if row.IsCurrent {
			currentCount++
			if i != len(sorted)-1 {
				violations = append(violations, domain.Violation{
					Code:    domain.ViolationOutOfOrderVersion,
					Message: fmt.Sprintf("版本 %d 是生效行但不是最后一行", row.Version),
				})
			}
			if row.ValidTo != nil {
				violations = append(violations, domain.Violation{
					Code:    domain.ViolationOverlappingWindow,
					Message: fmt.Sprintf("版本 %d 是生效行但窗口已关闭", row.Version),
				})
			}
		}
	}
	if currentCount > 1 {
		violations = append(violations, domain.Violation{
			Code:    domain.ViolationOutOfOrderVersion,
			Message: fmt.Sprintf("存在 %d 行生效记录，至多允许一行", currentCount),
		})
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if windowsOverlap(sorted[i].ValidFrom, sorted[i].ValidTo, sorted[j].ValidFrom, sorted[j].ValidTo) {
				violations = append(violations, domain.Violation{
					Code: domain.ViolationOverlappingWindow,
					Message: fmt.Sprintf("版本 %d 和版本 %d 的窗口相交",
						sorted[i].Version, sorted[j].Version),
				})
			}
		}
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}
