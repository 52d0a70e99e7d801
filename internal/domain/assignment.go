package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slot 是分组键 (person, unit, job title)，同一 slot 的所有版本行共享它
type Slot struct {
	PersonID   int64 `json:"personID"`
	UnitID     int64 `json:"unitID"`
	JobTitleID int64 `json:"jobTitleID"`
}

type Assignment struct {
	ID          int64           `json:"id"`
	PersonID    int64           `json:"personID"`
	UnitID      int64           `json:"unitID"`
	JobTitleID  int64           `json:"jobTitleID"`
	Version     int32           `json:"version"`
	Percentage  decimal.Decimal `json:"percentage"`
	IsAdInterim bool            `json:"isAdInterim"`
	IsUnitBoss  bool            `json:"isUnitBoss"`
	Notes       string          `json:"notes,omitempty"`
	ValidFrom   time.Time       `json:"validFrom"`
	ValidTo     *time.Time      `json:"validTo"`
	IsCurrent   bool            `json:"isCurrent"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (a *Assignment) Slot() Slot {
	return Slot{PersonID: a.PersonID, UnitID: a.UnitID, JobTitleID: a.JobTitleID}
}

// DateOnly 将时间截断到 UTC 日期，valid_from / valid_to 只存日期
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	y, m, d := u.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
