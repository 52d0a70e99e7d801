package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

func TestMapAssignmentPgError(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "部分唯一索引冲突", constraint: "assignments_slot_current_key", want: domain.ErrSlotAlreadyActive},
		// 并发 create 也可能先撞上版本唯一索引
		{name: "版本唯一索引冲突", constraint: "assignments_slot_version_key", want: domain.ErrSlotAlreadyActive},
		{name: "人员外键", constraint: "assignments_person_id_fkey", want: domain.ErrUnknownPerson},
		{name: "部门外键", constraint: "assignments_unit_id_fkey", want: domain.ErrUnknownUnit},
		{name: "职位外键", constraint: "assignments_job_title_id_fkey", want: domain.ErrUnknownJobTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint}
			err := mapAssignmentPgError(fmt.Errorf("插入失败: %w", pgErr))
			require.ErrorIs(t, err, tt.want)
		})
	}

	// 未识别的约束原样透传
	other := &pgconn.PgError{Code: "23514", ConstraintName: "assignments_percentage_check"}
	require.Equal(t, error(other), mapAssignmentPgError(other))

	// 非 pg 错误原样透传
	plain := errors.New("连接中断")
	require.Equal(t, plain, mapAssignmentPgError(plain))
}
