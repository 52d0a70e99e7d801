package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
	"github.com/mancio76/OrgChartV2-sub001/internal/repository"
	"github.com/mancio76/OrgChartV2-sub001/internal/versioning"
	"github.com/shopspring/decimal"
)

type sampleAssignment struct {
	personEmail string
	unitName    string
	jobTitle    string
	percentage  string
	isAdInterim bool
	isUnitBoss  bool
	notes       string
	validFrom   string
}

var sampleUnits = []struct {
	name   string
	parent string
}{
	{name: "Direzione Generale"},
	{name: "Sistemi Informativi", parent: "Direzione Generale"},
	{name: "Risorse Umane", parent: "Direzione Generale"},
	{name: "Amministrazione", parent: "Direzione Generale"},
	{name: "Sviluppo Software", parent: "Sistemi Informativi"},
}

var sampleJobTitles = []string{
	"Direttore Generale",
	"Responsabile",
	"Analista",
	"Sviluppatore",
	"Specialista HR",
}

var samplePersons = []domain.Person{
	{FirstName: "Mario", LastName: "Rossi", Email: "mario.rossi@example.org"},
	{FirstName: "Laura", LastName: "Bianchi", Email: "laura.bianchi@example.org"},
	{FirstName: "Giulia", LastName: "Verdi", Email: "giulia.verdi@example.org"},
	{FirstName: "Antonio", LastName: "Russo", Email: "antonio.russo@example.org"},
	{FirstName: "Elena", LastName: "Ferrari", Email: "elena.ferrari@example.org"},
}

var sampleAssignments = []sampleAssignment{
	{personEmail: "mario.rossi@example.org", unitName: "Direzione Generale", jobTitle: "Direttore Generale", percentage: "1.0", isUnitBoss: true, validFrom: "2024-01-01"},
	{personEmail: "laura.bianchi@example.org", unitName: "Sistemi Informativi", jobTitle: "Responsabile", percentage: "1.0", isUnitBoss: true, validFrom: "2024-01-01"},
	{personEmail: "laura.bianchi@example.org", unitName: "Sviluppo Software", jobTitle: "Responsabile", percentage: "0.2", isAdInterim: true, isUnitBoss: true, notes: "代理负责人，等待正式任命", validFrom: "2024-06-01"},
	{personEmail: "giulia.verdi@example.org", unitName: "Sviluppo Software", jobTitle: "Sviluppatore", percentage: "1.0", validFrom: "2024-03-01"},
	{personEmail: "antonio.russo@example.org", unitName: "Amministrazione", jobTitle: "Analista", percentage: "0.6", validFrom: "2024-02-01"},
	{personEmail: "antonio.russo@example.org", unitName: "Sistemi Informativi", jobTitle: "Analista", percentage: "0.5", validFrom: "2024-04-01"},
	{personEmail: "elena.ferrari@example.org", unitName: "Risorse Umane", jobTitle: "Specialista HR", percentage: "0.8", validFrom: "2024-01-15"},
}

// SeedSampleOrg 插入一套示例组织架构数据，包括组织单元树、职位、人员以及若干任职记录。
// 所有任职记录都通过 versioning.Engine 写入，以保证版本链的合法性。
func SeedSampleOrg(repo *repository.Repository, engine *versioning.Engine) {
	ctx := context.Background()

	// 插入组织单元（父单元必须先于子单元插入）
	unitIDs := map[string]int64{}
	for _, su := range sampleUnits {
		unit := &domain.Unit{Name: su.name}
		if su.parent != "" {
			parentID, ok := unitIDs[su.parent]
			if !ok {
				slog.Error("父单元不存在", slog.String("unit", su.name), slog.String("parent", su.parent))
				continue
			}
			unit.ParentUnitID = &parentID
		}

		if err := repo.CreateUnit(ctx, unit); err != nil {
			slog.Error("无法插入组织单元", slog.String("unit", su.name), slog.String("error", err.Error()))
			continue
		}
		unitIDs[su.name] = unit.ID
	}
	slog.Info("插入组织单元完成", slog.Int("count", len(unitIDs)))

	// 插入职位
	jobTitleIDs := map[string]int64{}
	for _, name := range sampleJobTitles {
		jt := &domain.JobTitle{Name: name}
		if err := repo.CreateJobTitle(ctx, jt); err != nil {
			slog.Error("无法插入职位", slog.String("job_title", name), slog.String("error", err.Error()))
			continue
		}
		jobTitleIDs[name] = jt.ID
	}
	slog.Info("插入职位完成", slog.Int("count", len(jobTitleIDs)))

	// 插入人员
	personIDs := map[string]int64{}
	for _, p := range samplePersons {
		person := p
		if err := repo.CreatePerson(ctx, &person); err != nil {
			slog.Error("无法插入人员", slog.String("email", person.Email), slog.String("error", err.Error()))
			continue
		}
		personIDs[person.Email] = person.ID
	}
	slog.Info("插入人员完成", slog.Int("count", len(personIDs)))

	// 通过引擎插入任职记录
	created := 0
	for _, sa := range sampleAssignments {
		personID, ok := personIDs[sa.personEmail]
		if !ok {
			slog.Error("任职记录引用的人员不存在", slog.String("email", sa.personEmail))
			continue
		}
		unitID, ok := unitIDs[sa.unitName]
		if !ok {
			slog.Error("任职记录引用的组织单元不存在", slog.String("unit", sa.unitName))
			continue
		}
		jobTitleID, ok := jobTitleIDs[sa.jobTitle]
		if !ok {
			slog.Error("任职记录引用的职位不存在", slog.String("job_title", sa.jobTitle))
			continue
		}

		percentage, err := decimal.NewFromString(sa.percentage)
		if err != nil {
			slog.Error("非法的任职比例", slog.String("percentage", sa.percentage), slog.String("error", err.Error()))
			continue
		}
		validFrom, err := time.Parse("2006-01-02", sa.validFrom)
		if err != nil {
			slog.Error("非法的生效日期", slog.String("valid_from", sa.validFrom), slog.String("error", err.Error()))
			continue
		}

		res, err := engine.Create(ctx, versioning.CreateInput{
			Slot: domain.Slot{
				PersonID:   personID,
				UnitID:     unitID,
				JobTitleID: jobTitleID,
			},
			Percentage:  percentage,
			IsAdInterim: sa.isAdInterim,
			IsUnitBoss:  sa.isUnitBoss,
			Notes:       sa.notes,
			ValidFrom:   validFrom,
		})
		if err != nil {
			slog.Error("无法插入任职记录", slog.String("email", sa.personEmail), slog.String("error", err.Error()))
			continue
		}
		for _, warning := range res.Warnings {
			slog.Warn("任职记录存在告警", slog.String("email", sa.personEmail), slog.String("warning", warning.Message))
		}

		created++
	}
	slog.Info("插入任职记录完成", slog.Int("count", created))

	// 演示一次版本演进：Giulia 的任职比例从 1.0 调整为 0.8
	demoVersionHistory(ctx, engine, domain.Slot{
		PersonID:   personIDs["giulia.verdi@example.org"],
		UnitID:     unitIDs["Sviluppo Software"],
		JobTitleID: jobTitleIDs["Sviluppatore"],
	})
}

func demoVersionHistory(ctx context.Context, engine *versioning.Engine, slot domain.Slot) {
	current, err := engine.CurrentForSlot(ctx, slot)
	if err != nil {
		slog.Error("无法获取当前任职记录", slog.String("error", err.Error()))
		return
	}

	newPercentage := decimal.RequireFromString("0.8")
	notes := "比例调整：部分时间支持内部培训"
	effectiveDate, _ := time.Parse("2006-01-02", "2024-09-01")

	res, err := engine.Modify(ctx, current.ID, versioning.ModifyInput{
		Percentage: &newPercentage,
		Notes:      &notes,
	}, effectiveDate)
	if err != nil {
		slog.Error("无法演进任职记录版本", slog.String("error", err.Error()))
		return
	}

	slog.Info("任职记录版本演进完成",
		slog.Int64("assignment_id", res.Assignment.ID),
		slog.Int("version", int(res.Assignment.Version)),
	)
}
