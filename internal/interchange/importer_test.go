package interchange

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
	"github.com/mancio76/OrgChartV2-sub001/internal/validation"
	"github.com/mancio76/OrgChartV2-sub001/internal/versioning"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workload.MaxPercentage = 1.0
	cfg.Workload.UnderUtilizedBelow = 0.5
	cfg.Workload.HighAbove = 0.9
	cfg.Workload.OverloadedAbove = 1.0
	return cfg
}

func newTestImporter(t *testing.T) (*Importer, *versioning.Engine) {
	t.Helper()

	store := versioning.NewMemoryStore()
	store.AddPerson(1)
	store.AddUnit(1)
	store.AddJobTitle(1)

	engine := versioning.NewEngine(testConfig(), store, nil)
	importer, err := NewImporter(engine)
	require.NoError(t, err)
	return importer, engine
}

func testRecord() domain.AssignmentRecord {
	return domain.AssignmentRecord{
		PersonID:   1,
		UnitID:     1,
		JobTitleID: 1,
		Percentage: 0.8,
		ValidFrom:  "2024-01-01",
	}
}

func TestApplyRejectsInvalidRecord(t *testing.T) {
	importer, _ := newTestImporter(t)
	ctx := context.Background()

	rec := testRecord()
	rec.PersonID = 0
	_, err := importer.Apply(ctx, rec, PolicySkip)
	require.Error(t, err)

	rec = testRecord()
	rec.Percentage = 0
	_, err = importer.Apply(ctx, rec, PolicySkip)
	require.Error(t, err)

	rec = testRecord()
	rec.ValidFrom = "01/01/2024"
	_, err = importer.Apply(ctx, rec, PolicySkip)
	require.Error(t, err)
}

func TestApplyCreatesWhenSlotInactive(t *testing.T) {
	importer, _ := newTestImporter(t)
	ctx := context.Background()

	outcome, err := importer.Apply(ctx, testRecord(), PolicySkip)
	require.NoError(t, err)
	require.Equal(t, ActionCreated, outcome.Action)
	require.Equal(t, int32(1), outcome.Assignment.Version)
}

// 导出后用 skip 策略重新导入不改变任何状态
func TestApplySkipIsIdempotent(t *testing.T) {
	importer, engine := newTestImporter(t)
	ctx := context.Background()
	slot := domain.Slot{PersonID: 1, UnitID: 1, JobTitleID: 1}

	_, err := importer.Apply(ctx, testRecord(), PolicySkip)
	require.NoError(t, err)

	cur, err := engine.CurrentForSlot(ctx, slot)
	require.NoError(t, err)
	exported := RecordFromAssignment(cur)

	outcome, err := importer.Apply(ctx, exported, PolicySkip)
	require.NoError(t, err)
	require.Equal(t, ActionSkipped, outcome.Action)

	history, err := engine.HistoryForSlot(ctx, slot)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestApplyUpdateOverwritesInPlace(t *testing.T) {
	importer, engine := newTestImporter(t)
	ctx := context.Background()
	slot := domain.Slot{PersonID: 1, UnitID: 1, JobTitleID: 1}

	_, err := importer.Apply(ctx, testRecord(), PolicySkip)
	require.NoError(t, err)

	rec := testRecord()
	rec.Percentage = 0.5
	outcome, err := importer.Apply(ctx, rec, PolicyUpdate)
	require.NoError(t, err)
	require.Equal(t, ActionUpdated, outcome.Action)
	// 原地覆盖不产生新版本
	require.Equal(t, int32(1), outcome.Assignment.Version)
	require.True(t, decimal.NewFromFloat(0.5).Equal(outcome.Assignment.Percentage))

	history, err := engine.HistoryForSlot(ctx, slot)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestApplyCreateVersionKeepsHistory(t *testing.T) {
	importer, engine := newTestImporter(t)
	ctx := context.Background()
	slot := domain.Slot{PersonID: 1, UnitID: 1, JobTitleID: 1}

	_, err := importer.Apply(ctx, testRecord(), PolicySkip)
	require.NoError(t, err)

	rec := testRecord()
	rec.Percentage = 0.5
	rec.ValidFrom = "2024-07-01"
	outcome, err := importer.Apply(ctx, rec, PolicyCreateVersion)
	require.NoError(t, err)
	require.Equal(t, ActionVersioned, outcome.Action)
	require.Equal(t, int32(2), outcome.Assignment.Version)

	history, err := engine.HistoryForSlot(ctx, slot)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NoError(t, validation.CheckHistory(history))
}

func TestApplyUnknownPolicy(t *testing.T) {
	importer, _ := newTestImporter(t)
	ctx := context.Background()

	_, err := importer.Apply(ctx, testRecord(), PolicySkip)
	require.NoError(t, err)

	_, err = importer.Apply(ctx, testRecord(), ConflictPolicy("merge"))
	require.Error(t, err)
}

func TestRecordFromAssignment(t *testing.T) {
	validFrom, err := time.Parse("2006-01-02", "2024-01-01")
	require.NoError(t, err)
	validTo, err := time.Parse("2006-01-02", "2024-06-30")
	require.NoError(t, err)

	rec := RecordFromAssignment(&domain.Assignment{
		PersonID:   1,
		UnitID:     2,
		JobTitleID: 3,
		Percentage: decimal.NewFromFloat(0.8),
		ValidFrom:  validFrom,
		ValidTo:    &validTo,
	})
	require.Equal(t, "2024-01-01", rec.ValidFrom)
	require.Equal(t, "2024-06-30", rec.ValidTo)
	require.Equal(t, 0.8, rec.Percentage)

	open := RecordFromAssignment(&domain.Assignment{
		PersonID:   1,
		UnitID:     2,
		JobTitleID: 3,
		Percentage: decimal.NewFromFloat(0.8),
		ValidFrom:  validFrom,
	})
	require.Empty(t, open.ValidTo)
}
