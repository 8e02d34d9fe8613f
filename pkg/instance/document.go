package instance

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/validation"
)

// Document is the JSON interchange form of an instance. Ids are array indices
// into Statements and Entities; EntityStatements is keyed by the decimal entity
// index.
type Document struct {
	Statements       []StatementDoc   `json:"statements" validate:"required,dive"`
	Entities         []EntityDoc      `json:"entities" validate:"required,min=1,dive"`
	EntityStatements map[string][]int `json:"entity_statements" validate:"required"`
}

// StatementDoc is one statement entry.
type StatementDoc struct {
	Text string `json:"text"`
}

// EntityDoc is one entity entry.
type EntityDoc struct {
	Name string `json:"name"`
}

// Decode parses and validates a JSON document and converts it to a root instance.
func Decode(data []byte) (*Instance, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return FromDocument("", &doc)
}

// FromDocument converts a document to an instance with the given id (a fresh
// UUID when empty) and validates the result.
func FromDocument(id string, doc *Document) (*Instance, error) {
	if err := validation.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	catalog := &Catalog{
		EntityNames:    make(map[int]string, len(doc.Entities)),
		StatementTexts: make(map[int]string, len(doc.Statements)),
	}
	statements := make([]int, len(doc.Statements))
	for idx, s := range doc.Statements {
		statements[idx] = idx
		catalog.StatementTexts[idx] = s.Text
	}

	entities := make([]int, len(doc.Entities))
	entityStatements := make(map[int][]int, len(doc.Entities))
	for idx, e := range doc.Entities {
		entities[idx] = idx
		catalog.EntityNames[idx] = e.Name
		entityStatements[idx] = []int{}
	}

	for key, list := range doc.EntityStatements {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: entity key %q is not an index", ErrMalformed, key)
		}
		entityStatements[idx] = slices.Clone(list)
	}

	inst := New(id, entities, statements, entityStatements, catalog)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// ToDocument converts an instance to the wire form used by remote optimizers.
// Because document ids are array indices, EntityIDs and StatementIDs map each
// position back to the global id.
func (i *Instance) ToDocument() *WireDocument {
	wd := &WireDocument{
		ID:           i.ID,
		EntityIDs:    slices.Clone(i.Entities),
		StatementIDs: slices.Clone(i.Statements),
	}

	stIndex := make(map[int]int, len(i.Statements))
	wd.Statements = make([]StatementDoc, len(i.Statements))
	for idx, s := range i.Statements {
		stIndex[s] = idx
		wd.Statements[idx] = StatementDoc{Text: i.StatementText(s)}
	}

	wd.Entities = make([]EntityDoc, len(i.Entities))
	wd.EntityStatements = make(map[string][]int, len(i.Entities))
	for idx, e := range i.Entities {
		wd.Entities[idx] = EntityDoc{Name: i.EntityName(e)}
		local := make([]int, 0, len(i.EntityStatements[e]))
		for _, s := range i.EntityStatements[e] {
			local = append(local, stIndex[s])
		}
		wd.EntityStatements[strconv.Itoa(idx)] = local
	}
	return wd
}

// WireDocument is a Document plus the global id maps of a (sub-)instance.
type WireDocument struct {
	Document
	ID           string `json:"id"`
	EntityIDs    []int  `json:"entity_ids"`
	StatementIDs []int  `json:"statement_ids"`
}

// FromWire rebuilds an instance, with global ids, from its wire form.
func FromWire(wd *WireDocument) (*Instance, error) {
	if len(wd.EntityIDs) != len(wd.Entities) || len(wd.StatementIDs) != len(wd.Statements) {
		return nil, fmt.Errorf("%w: id maps do not match document sizes", ErrMalformed)
	}

	catalog := &Catalog{
		EntityNames:    make(map[int]string, len(wd.Entities)),
		StatementTexts: make(map[int]string, len(wd.Statements)),
	}
	for idx, s := range wd.Statements {
		catalog.StatementTexts[wd.StatementIDs[idx]] = s.Text
	}
	entityStatements := make(map[int][]int, len(wd.Entities))
	for idx, e := range wd.Entities {
		id := wd.EntityIDs[idx]
		catalog.EntityNames[id] = e.Name
		local := wd.EntityStatements[strconv.Itoa(idx)]
		global := make([]int, 0, len(local))
		for _, l := range local {
			if l < 0 || l >= len(wd.StatementIDs) {
				return nil, fmt.Errorf("%w: statement index %d out of range", ErrMalformed, l)
			}
			global = append(global, wd.StatementIDs[l])
		}
		entityStatements[id] = global
	}
	return New(wd.ID, wd.EntityIDs, wd.StatementIDs, entityStatements, catalog), nil
}
