// Package instance models a statement/entity problem instance: entities own
// ordered lists of statements, and two entities are related whenever they share
// one. Identifiers are global and never renumbered by decomposition, so results
// can always be reconciled against the root instance.
package instance

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Catalog holds the opaque name and text payloads of the root instance. It is
// created once and shared by pointer with every sub-instance.
type Catalog struct {
	EntityNames    map[int]string
	StatementTexts map[int]string
}

// Instance is one unit of work for the optimizer. Entities and Statements are
// kept in ascending id order; EntityStatements preserves each entity's own order.
type Instance struct {
	ID               string
	Entities         []int
	Statements       []int
	EntityStatements map[int][]int

	catalog *Catalog
}

// New builds an instance from its parts. Entity and statement id lists are
// copied and sorted. An empty id is replaced by a fresh UUID.
func New(id string, entities, statements []int, entityStatements map[int][]int, catalog *Catalog) *Instance {
	if id == "" {
		id = uuid.NewString()
	}
	if catalog == nil {
		catalog = &Catalog{}
	}
	if entityStatements == nil {
		entityStatements = make(map[int][]int)
	}

	inst := &Instance{
		ID:               id,
		Entities:         slices.Clone(entities),
		Statements:       slices.Clone(statements),
		EntityStatements: entityStatements,
		catalog:          catalog,
	}
	slices.Sort(inst.Entities)
	slices.Sort(inst.Statements)
	return inst
}

// Child derives a sub-instance sharing this instance's catalog. The child id is
// "<parent id>.<index>".
func (i *Instance) Child(index int, entities, statements []int, entityStatements map[int][]int) *Instance {
	return New(fmt.Sprintf("%s.%d", i.ID, index), entities, statements, entityStatements, i.catalog)
}

// NumberOfEntities returns the entity count.
func (i *Instance) NumberOfEntities() int { return len(i.Entities) }

// NumberOfStatements returns the statement count.
func (i *Instance) NumberOfStatements() int { return len(i.Statements) }

// StatementsOf returns the statements owned by entity, in its own order.
func (i *Instance) StatementsOf(entity int) []int {
	return i.EntityStatements[entity]
}

// HasEntity reports whether entity belongs to the instance.
func (i *Instance) HasEntity(entity int) bool {
	_, ok := slices.BinarySearch(i.Entities, entity)
	return ok
}

// HasStatement reports whether statement belongs to the instance.
func (i *Instance) HasStatement(statement int) bool {
	_, ok := slices.BinarySearch(i.Statements, statement)
	return ok
}

// Catalog returns the shared payload catalog.
func (i *Instance) Catalog() *Catalog { return i.catalog }

// EntityName returns the name payload of an entity.
func (i *Instance) EntityName(entity int) string {
	return i.catalog.EntityNames[entity]
}

// StatementText returns the text payload of a statement.
func (i *Instance) StatementText(statement int) string {
	return i.catalog.StatementTexts[statement]
}

// AddEntity inserts an entity id keeping Entities sorted. It is a no-op when
// the entity is already present.
func (i *Instance) AddEntity(entity int) {
	pos, ok := slices.BinarySearch(i.Entities, entity)
	if !ok {
		i.Entities = slices.Insert(i.Entities, pos, entity)
	}
}

// AddStatements inserts statement ids keeping Statements sorted and unique.
func (i *Instance) AddStatements(statements ...int) {
	for _, s := range statements {
		pos, ok := slices.BinarySearch(i.Statements, s)
		if !ok {
			i.Statements = slices.Insert(i.Statements, pos, s)
		}
	}
}

// Clone returns a deep copy of the id structure. The catalog stays shared.
func (i *Instance) Clone() *Instance {
	es := make(map[int][]int, len(i.EntityStatements))
	for e, st := range i.EntityStatements {
		es[e] = slices.Clone(st)
	}
	return &Instance{
		ID:               i.ID,
		Entities:         slices.Clone(i.Entities),
		Statements:       slices.Clone(i.Statements),
		EntityStatements: es,
		catalog:          i.catalog,
	}
}

// Validate checks the structural invariants of the instance: every owner is a
// listed entity, every owned statement is listed, and every listed statement
// has at least one owner.
func (i *Instance) Validate() error {
	if i.NumberOfEntities() == 0 {
		return fmt.Errorf("instance %s: %w", i.ID, ErrEmptyInstance)
	}

	owned := make(map[int]bool, len(i.Statements))
	for e, statements := range i.EntityStatements {
		if !i.HasEntity(e) {
			return fmt.Errorf("instance %s: entity %d: %w", i.ID, e, ErrUnknownEntity)
		}
		for _, s := range statements {
			if !i.HasStatement(s) {
				return fmt.Errorf("instance %s: entity %d statement %d: %w", i.ID, e, s, ErrUnknownStatement)
			}
			owned[s] = true
		}
	}

	for _, s := range i.Statements {
		if !owned[s] {
			return fmt.Errorf("instance %s: statement %d: %w", i.ID, s, ErrOrphanStatement)
		}
	}
	return nil
}

// Dedupe returns the statements with duplicates removed, keeping the first
// occurrence of each.
func Dedupe(statements []int) []int {
	seen := make(map[int]struct{}, len(statements))
	out := make([]int, 0, len(statements))
	for _, s := range statements {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
