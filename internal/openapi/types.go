package openapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// TypeMapping maps Go field types to OpenAPI type/format pairs.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, float, double, date-time, etc.
}

var kindToOpenAPI = map[reflect.Kind]TypeMapping{
	reflect.Bool:    {"boolean", ""},
	reflect.Int:     {"integer", "int32"},
	reflect.Int8:    {"integer", "int32"},
	reflect.Int16:   {"integer", "int32"},
	reflect.Int32:   {"integer", "int32"},
	reflect.Int64:   {"integer", "int64"},
	reflect.Uint:    {"integer", "int64"},
	reflect.Uint8:   {"integer", "int32"},
	reflect.Uint16:  {"integer", "int32"},
	reflect.Uint32:  {"integer", "int64"},
	reflect.Uint64:  {"integer", "int64"},
	reflect.Float32: {"number", "float"},
	reflect.Float64: {"number", "double"},
	reflect.String:  {"string", ""},
	reflect.Slice:   {"array", ""},
	reflect.Array:   {"array", ""},
	reflect.Map:     {"object", ""},
	reflect.Struct:  {"object", ""},
}

var timeType = reflect.TypeOf(time.Time{})

// MapGoType returns the OpenAPI type for a Go type. Pointers map to their
// element type, time.Time to a date-time string, and anything unknown falls
// back to string.
func MapGoType(t reflect.Type) TypeMapping {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return TypeMapping{"string", "date-time"}
	}
	if m, ok := kindToOpenAPI[t.Kind()]; ok {
		return m
	}
	return TypeMapping{"string", ""}
}

// StructSchema builds an object schema from the JSON-visible fields of v,
// which must be a struct or a pointer to one. Fields tagged json:"-" are
// omitted; pointer fields are marked nullable.
func StructSchema(v interface{}) *openapi3.Schema {
	return typeSchema(reflect.TypeOf(v))
}

func typeSchema(t reflect.Type) *openapi3.Schema {
	nullable := false
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		nullable = true
	}

	m := MapGoType(t)
	s := &openapi3.Schema{Type: &openapi3.Types{m.Type}, Nullable: nullable}
	if m.Format != "" {
		s.Format = m.Format
	}

	switch {
	case t == timeType:
	case m.Type == "array":
		s.Items = &openapi3.SchemaRef{Value: typeSchema(t.Elem())}
	case t.Kind() == reflect.Struct:
		s.Properties = openapi3.Schemas{}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonName(f)
			if name == "" {
				continue
			}
			s.Properties[name] = &openapi3.SchemaRef{Value: typeSchema(f.Type)}
		}
	}
	return s
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" {
		return f.Name
	}
	return name
}
