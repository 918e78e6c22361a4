package templates

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"
	"unicode"
)

// Field is one property of a generated view.
type Field struct {
	Name   string
	GoType string
}

var goTypes = map[string]bool{
	"string":  true,
	"bool":    true,
	"int":     true,
	"int64":   true,
	"float64": true,
	"any":     true,
}

// names used by the generated code itself
var reserved = map[string]bool{
	"rt": true,
	"o":  true,
	"v":  true,
	"x":  true,
}

// ParseFields reads "name:type,name:type". Types default to any.
func ParseFields(spec string) ([]Field, error) {
	var fields []Field
	seen := map[string]bool{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ, found := strings.Cut(part, ":")
		if !found {
			typ = "any"
		}
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !isIdent(name) {
			return nil, fmt.Errorf("invalid field name %q", name)
		}
		if !goTypes[typ] {
			return nil, fmt.Errorf("field %q: unsupported type %q", name, typ)
		}
		if seen[exported(name)] {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		seen[exported(name)] = true
		fields = append(fields, Field{Name: name, GoType: typ})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields in %q", spec)
	}
	return fields, nil
}

// isIdent rejects names the generated code cannot use: keywords,
// predeclared identifiers, its own locals, and names whose accessors would
// be unexported or clash with the Object method.
func isIdent(s string) bool {
	if !token.IsIdentifier(s) || reserved[s] || types.Universe.Lookup(s) != nil {
		return false
	}
	name := exported(s)
	return token.IsExported(name) && name != "Object"
}

func exported(name string) string {
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func params(fields []Field) string {
	var sb strings.Builder
	for i, f := range fields {
		sb.WriteString(f.Name)
		sb.WriteString(" ")
		sb.WriteString(f.GoType)
		if i < len(fields)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
