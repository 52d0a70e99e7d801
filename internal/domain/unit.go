package domain

import "time"

type Unit struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ParentUnitID *int64    `json:"parentUnitID"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
