package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Embedded fields must be exported for StructToMap to reach them, matching
// the production embeds (entity.Document, entity.Catalog).
type MockBase struct {
	ID      string `db:"id"`
	Version int    `db:"version"`
}

type MockRow struct {
	MockBase

	Code     string `db:"code"`
	Name     string `db:"name"`
	Ignored  string `db:"-"`
	Untagged string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[MockRow]()
	assert.Equal(t, []string{"id", "version", "code", "name"}, cols)
}

func TestExtractDBColumnsPointer(t *testing.T) {
	cols := ExtractDBColumns[*MockRow]()
	assert.Equal(t, []string{"id", "version", "code", "name"}, cols)
}

func TestStructToMap(t *testing.T) {
	row := MockRow{
		MockBase: MockBase{ID: "abc", Version: 3},
		Code:     "MUM01",
		Name:     "Mumbai Site",
		Ignored:  "skip me",
		Untagged: "skip me too",
	}

	m := StructToMap(&row)
	assert.Equal(t, map[string]any{
		"id":      "abc",
		"version": 3,
		"code":    "MUM01",
		"name":    "Mumbai Site",
	}, m)
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
