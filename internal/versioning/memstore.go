package versioning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/domain"
)

// MemoryStore 是 Store 的内存实现，语义和数据库实现保持一致：
// 每个写方法相当于一个事务，互斥锁保证同一 slot 上竞争的写串行化。
// 用于测试和不依赖数据库的演示。
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*domain.Assignment
	persons   map[int64]bool
	units     map[int64]bool
	jobTitles map[int64]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:      map[int64]*domain.Assignment{},
		persons:   map[int64]bool{},
		units:     map[int64]bool{},
		jobTitles: map[int64]bool{},
	}
}

func (s *MemoryStore) AddPerson(id int64)   { s.mu.Lock(); s.persons[id] = true; s.mu.Unlock() }
func (s *MemoryStore) AddUnit(id int64)     { s.mu.Lock(); s.units[id] = true; s.mu.Unlock() }
func (s *MemoryStore) AddJobTitle(id int64) { s.mu.Lock(); s.jobTitles[id] = true; s.mu.Unlock() }

func cloneAssignment(a *domain.Assignment) *domain.Assignment {
	c := *a
	if a.ValidTo != nil {
		t := *a.ValidTo
		c.ValidTo = &t
	}
	return &c
}

func (s *MemoryStore) GetAssignmentByID(_ context.Context, id int64) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	return cloneAssignment(row), nil
}

func (s *MemoryStore) GetCurrentAssignment(_ context.Context, slot domain.Slot) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row := s.currentLocked(slot); row != nil {
		return cloneAssignment(row), nil
	}
	return nil, domain.ErrAssignmentNotFound
}

func (s *MemoryStore) currentLocked(slot domain.Slot) *domain.Assignment {
	for _, row := range s.rows {
		if row.Slot() == slot && row.IsCurrent {
			return row
		}
	}
	return nil
}

func (s *MemoryStore) GetSlotHistory(_ context.Context, slot domain.Slot) ([]*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := []*domain.Assignment{}
	for _, row := range s.rows {
		if row.Slot() == slot {
			history = append(history, cloneAssignment(row))
		}
	}
	sort.Slice(history, func(i, j int) bool {
		if !history[i].ValidFrom.Equal(history[j].ValidFrom) {
			return history[i].ValidFrom.Before(history[j].ValidFrom)
		}
		return history[i].Version < history[j].Version
	})
	return history, nil
}

func (s *MemoryStore) GetCurrentAssignmentsByPerson(_ context.Context, personID int64) ([]*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := []*domain.Assignment{}
	for _, row := range s.rows {
		if row.PersonID == personID && row.IsCurrent {
			current = append(current, cloneAssignment(row))
		}
	}
	sort.Slice(current, func(i, j int) bool {
		if current[i].UnitID != current[j].UnitID {
			return current[i].UnitID < current[j].UnitID
		}
		return current[i].JobTitleID < current[j].JobTitleID
	})
	return current, nil
}

func (s *MemoryStore) InsertAssignment(_ context.Context, a *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.persons[a.PersonID] {
		return domain.ErrUnknownPerson
	}
	if !s.units[a.UnitID] {
		return domain.ErrUnknownUnit
	}
	if !s.jobTitles[a.JobTitleID] {
		return domain.ErrUnknownJobTitle
	}
	if s.currentLocked(a.Slot()) != nil {
		return domain.ErrSlotAlreadyActive
	}

	var maxVersion int32
	for _, row := range s.rows {
		if row.Slot() == a.Slot() && row.Version > maxVersion {
			maxVersion = row.Version
		}
	}

	s.nextID++
	a.ID = s.nextID
	a.Version = maxVersion + 1
	a.ValidTo = nil
	a.IsCurrent = true
	a.CreatedAt = time.Now().UTC()
	s.rows[a.ID] = cloneAssignment(a)
	return nil
}

func (s *MemoryStore) ReplaceCurrentAssignment(_ context.Context, currentID int64, validTo time.Time, next *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rows[currentID]
	if !ok || !cur.IsCurrent {
		return domain.ErrStaleVersion
	}

	t := validTo
	cur.ValidTo = &t
	cur.IsCurrent = false

	s.nextID++
	next.ID = s.nextID
	next.ValidTo = nil
	next.IsCurrent = true
	next.CreatedAt = time.Now().UTC()
	s.rows[next.ID] = cloneAssignment(next)
	return nil
}

func (s *MemoryStore) CloseAssignment(_ context.Context, id int64, validTo time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return domain.ErrAssignmentNotFound
	}
	if !row.IsCurrent {
		return domain.ErrAlreadyTerminated
	}

	t := validTo
	row.ValidTo = &t
	row.IsCurrent = false
	return nil
}

func (s *MemoryStore) UpdateAssignmentInPlace(_ context.Context, a *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[a.ID]
	if !ok || !row.IsCurrent {
		return domain.ErrStaleVersion
	}

	row.Percentage = a.Percentage
	row.IsAdInterim = a.IsAdInterim
	row.IsUnitBoss = a.IsUnitBoss
	row.Notes = a.Notes

	a.Version = row.Version
	a.ValidFrom = row.ValidFrom
	a.CreatedAt = row.CreatedAt
	a.IsCurrent = true
	return nil
}

func (s *MemoryStore) PurgeSlot(_ context.Context, slot domain.Slot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentLocked(slot) != nil {
		return 0, domain.ErrSlotStillActive
	}

	var deleted int64
	for id, row := range s.rows {
		if row.Slot() == slot {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) PersonExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persons[id], nil
}

func (s *MemoryStore) UnitExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units[id], nil
}

func (s *MemoryStore) JobTitleExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobTitles[id], nil
}
