// Package memory provides mutex-guarded in-memory repositories. They honour
// the same versioning and soft-delete rules as the SQL store and are meant
// for tests and single-process tools.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
)

type key struct {
	site uuid.UUID
	id   uuid.UUID
}

// uniqueIndex returns the value a row claims, or "" when it claims nothing
// (for example because it is deleted).
type uniqueIndex[S any] struct {
	name  string
	value func(S) string
}

type table[S any] struct {
	aggregateType string
	version       func(S) int64
	setVersion    func(*S, int64)
	site          func(S) uuid.UUID
	indexes       []uniqueIndex[S]

	mu   sync.RWMutex
	rows map[key]S
	seq  map[key]int
	next int
}

func newTable[S any](aggregateType string, version func(S) int64, setVersion func(*S, int64), site func(S) uuid.UUID, indexes ...uniqueIndex[S]) *table[S] {
	return &table[S]{
		aggregateType: aggregateType,
		version:       version,
		setVersion:    setVersion,
		site:          site,
		indexes:       indexes,
		rows:          make(map[key]S),
		seq:           make(map[key]int),
	}
}

func (t *table[S]) get(site, id uuid.UUID) (S, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[key{site, id}]
	if !ok {
		var zero S
		return zero, &domain.NotFoundError{AggregateType: t.aggregateType, ID: id}
	}
	return row, nil
}

// find returns the first row of site matching pred, in insertion order.
func (t *table[S]) find(site uuid.UUID, pred func(S) bool) (S, bool) {
	rows := t.list(site, pred)
	if len(rows) == 0 {
		var zero S
		return zero, false
	}
	return rows[0], true
}

// list returns the rows of site matching pred, in insertion order.
func (t *table[S]) list(site uuid.UUID, pred func(S) bool) []S {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type entry struct {
		seq int
		row S
	}
	var matches []entry
	for k, row := range t.rows {
		if k.site != site || !pred(row) {
			continue
		}
		matches = append(matches, entry{t.seq[k], row})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })

	out := make([]S, len(matches))
	for i, m := range matches {
		out[i] = m.row
	}
	return out
}

func (t *table[S]) count(site uuid.UUID, pred func(S) bool) int {
	return len(t.list(site, pred))
}

// insert stores row at version 1.
func (t *table[S]) insert(id uuid.UUID, row S, expected int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{t.site(row), id}
	if _, exists := t.rows[k]; exists {
		return 0, domain.NewPersistenceError("create", &domain.UniqueConstraintError{Constraint: "id", Value: id.String()})
	}
	if expected != 0 {
		return 0, &domain.ConcurrencyConflictError{AggregateType: t.aggregateType, ID: id, Expected: expected, Actual: 0}
	}
	if err := t.checkUnique(k, row); err != nil {
		return 0, domain.NewPersistenceError("create", err)
	}

	t.setVersion(&row, 1)
	t.rows[k] = row
	t.next++
	t.seq[k] = t.next
	return 1, nil
}

// replace overwrites the stored row when its version equals expected.
func (t *table[S]) replace(id uuid.UUID, row S, expected int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{t.site(row), id}
	stored, ok := t.rows[k]
	if !ok {
		return 0, &domain.NotFoundError{AggregateType: t.aggregateType, ID: id}
	}
	if actual := t.version(stored); actual != expected {
		return 0, &domain.ConcurrencyConflictError{AggregateType: t.aggregateType, ID: id, Expected: expected, Actual: actual}
	}
	if err := t.checkUnique(k, row); err != nil {
		return 0, domain.NewPersistenceError("update", err)
	}

	t.setVersion(&row, expected+1)
	t.rows[k] = row
	return expected + 1, nil
}

func (t *table[S]) checkUnique(self key, row S) error {
	for _, idx := range t.indexes {
		v := idx.value(row)
		if v == "" {
			continue
		}
		for k, other := range t.rows {
			if k == self || k.site != self.site {
				continue
			}
			if idx.value(other) == v {
				return &domain.UniqueConstraintError{Constraint: idx.name, Value: v}
			}
		}
	}
	return nil
}
