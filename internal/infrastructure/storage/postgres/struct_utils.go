package postgres

import (
	"maps"
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags,
// descending into embedded structs. Call it once at repository construction.
//
// Usage:
//
//	columns := ExtractDBColumns[party.Party]()
//	// Returns: ["id", "name", "party_type", "phone", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := getOrCreateTypeMetadata(reflect.TypeOf(zero))
	return meta.columns()
}

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index int    // Field index in the struct
	dbTag string // Database column name
}

// typeMetadata contains cached reflection metadata for a type.
type typeMetadata struct {
	t               reflect.Type
	fields          []fieldInfo
	embeddedIndices []int // Indices of embedded fields for recursive processing
}

func (m *typeMetadata) columns() []string {
	cols := make([]string, 0, len(m.fields))
	for _, fi := range m.fields {
		cols = append(cols, fi.dbTag)
	}
	for _, idx := range m.embeddedIndices {
		cols = append(cols, getOrCreateTypeMetadata(m.t.Field(idx).Type).columns()...)
	}
	return cols
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

// getOrCreateTypeMetadata returns cached metadata or computes it once.
func getOrCreateTypeMetadata(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{t: t}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embeddedIndices = append(meta.embeddedIndices, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct to a column map using "db" tags.
// Fields tagged "-" or untagged are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := getOrCreateTypeMetadata(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, embIdx := range meta.embeddedIndices {
		maps.Copy(res, StructToMap(rv.Field(embIdx).Interface()))
	}
	return res
}

// Columns returns the subset of data named by cols, in cols order.
func Columns(data map[string]any, cols []string) ([]string, []any) {
	names := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	for _, col := range cols {
		if val, ok := data[col]; ok {
			names = append(names, col)
			values = append(values, val)
		}
	}
	return names, values
}
