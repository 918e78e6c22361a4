package templates_test

import (
	"go/format"
	"testing"

	"github.com/delaneyj/deepstate/cmd/codegen/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should parse field lists
func TestParseFields(t *testing.T) {
	fields, err := templates.ParseFields("title:string, done:bool,extra")
	require.NoError(t, err)
	assert.Equal(t, []templates.Field{
		{Name: "title", GoType: "string"},
		{Name: "done", GoType: "bool"},
		{Name: "extra", GoType: "any"},
	}, fields)

	for _, bad := range []string{
		"", "1x:int", "a:int,a:bool", "a:chan",
		"type:string", "func", "rt:int", "o", "any:int", "string",
		"_hidden", "object", "title,Title",
	} {
		_, err := templates.ParseFields(bad)
		assert.Error(t, err, bad)
	}
}

// should generate formatted Go source for a view
func TestViewGen(t *testing.T) {
	fields, err := templates.ParseFields("title:string,done:bool,meta")
	require.NoError(t, err)
	src := templates.ViewGen(templates.View{Package: "models", Name: "Todo", Fields: fields})

	formatted, err := format.Source([]byte(src))
	require.NoError(t, err, src)
	out := string(formatted)
	assert.Contains(t, out, "package models")
	assert.Contains(t, out, "func NewTodo(rt *observable.Runtime, title string, done bool, meta any) Todo {")
	assert.Contains(t, out, `x, _ := v.o.Get("title").(string)`)
	assert.Contains(t, out, "func (v Todo) SetDone(x bool) {")
	assert.Contains(t, out, `return v.o.Get("meta")`)
}
