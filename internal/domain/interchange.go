package domain

import "time"

// AssignmentRecord 是批量导入导出使用的行式记录，外键以被引用实体的 id 表示。
// 在进入版本引擎之前必须先通过边界校验。
type AssignmentRecord struct {
	PersonID    int64   `json:"personID" validate:"required,gt=0"`
	UnitID      int64   `json:"unitID" validate:"required,gt=0"`
	JobTitleID  int64   `json:"jobTitleID" validate:"required,gt=0"`
	Percentage  float64 `json:"percentage" validate:"required,gt=0"`
	IsAdInterim bool    `json:"isAdInterim"`
	IsUnitBoss  bool    `json:"isUnitBoss"`
	Notes       string  `json:"notes,omitempty"`
	ValidFrom   string  `json:"validFrom" validate:"required,datetime=2006-01-02"`
	ValidTo     string  `json:"validTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ExportMetadata struct {
	GeneratedAt     time.Time `json:"generatedAt"`
	PersonCount     int       `json:"personCount"`
	UnitCount       int       `json:"unitCount"`
	JobTitleCount   int       `json:"jobTitleCount"`
	AssignmentCount int       `json:"assignmentCount"`
}

// ExportDocument 是层级式导出文档，任职记录和兄弟实体集合并列
type ExportDocument struct {
	Metadata    ExportMetadata     `json:"metadata"`
	Persons     []*Person          `json:"persons"`
	Units       []*Unit            `json:"units"`
	JobTitles   []*JobTitle        `json:"jobTitles"`
	Assignments []AssignmentRecord `json:"assignments"`
}
