package domain

import "github.com/shopspring/decimal"

type WorkloadStatus string

const (
	WorkloadUnassigned    WorkloadStatus = "unassigned"
	WorkloadUnderUtilized WorkloadStatus = "under_utilized"
	WorkloadOptimal       WorkloadStatus = "optimal"
	WorkloadHigh          WorkloadStatus = "high"
	WorkloadOverloaded    WorkloadStatus = "overloaded"
)

type UnitWorkload struct {
	UnitID          int64           `json:"unitID"`
	TotalPercentage decimal.Decimal `json:"totalPercentage"`
	AssignmentCount int             `json:"assignmentCount"`
}

type WorkloadReport struct {
	PersonID              int64           `json:"personID"`
	TotalPercentage       decimal.Decimal `json:"totalPercentage"`
	AssignmentCount       int             `json:"assignmentCount"`
	DistinctUnitCount     int             `json:"distinctUnitCount"`
	DistinctJobTitleCount int             `json:"distinctJobTitleCount"`
	InterimCount          int             `json:"interimCount"`
	UnitBossCount         int             `json:"unitBossCount"`
	Status                WorkloadStatus  `json:"status"`
	Recommendations       []string        `json:"recommendations"`
	Units                 []UnitWorkload  `json:"units"`
}
