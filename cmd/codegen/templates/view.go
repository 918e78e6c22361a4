package templates

import (
	"io"

	"github.com/valyala/quicktemplate"
)

// View describes a typed wrapper around *observable.Object.
type View struct {
	Package string
	Name    string
	Fields  []Field
}

func StreamView(qw *quicktemplate.Writer, v View) {
	qw.N().S("// Code generated by deepstate codegen. DO NOT EDIT.\n\n")
	qw.N().S("package ")
	qw.N().S(v.Package)
	qw.N().S("\n\nimport \"github.com/delaneyj/deepstate/observable\"\n\n")

	qw.N().S("type ")
	qw.N().S(v.Name)
	qw.N().S(" struct {\n\to *observable.Object\n}\n\n")

	qw.N().S("func New")
	qw.N().S(v.Name)
	qw.N().S("(rt *observable.Runtime, ")
	qw.N().S(params(v.Fields))
	qw.N().S(") ")
	qw.N().S(v.Name)
	qw.N().S(" {\n\treturn ")
	qw.N().S(v.Name)
	qw.N().S("{o: rt.Object(map[string]any{\n")
	for _, f := range v.Fields {
		qw.N().S("\t\t")
		qw.N().Q(f.Name)
		qw.N().S(": ")
		qw.N().S(f.Name)
		qw.N().S(",\n")
	}
	qw.N().S("\t})}\n}\n\n")

	qw.N().S("func Wrap")
	qw.N().S(v.Name)
	qw.N().S("(o *observable.Object) ")
	qw.N().S(v.Name)
	qw.N().S(" {\n\treturn ")
	qw.N().S(v.Name)
	qw.N().S("{o: o}\n}\n\n")

	qw.N().S("func (v ")
	qw.N().S(v.Name)
	qw.N().S(") Object() *observable.Object {\n\treturn v.o\n}\n")

	for _, f := range v.Fields {
		streamAccessors(qw, v.Name, f)
	}
}

func streamAccessors(qw *quicktemplate.Writer, view string, f Field) {
	qw.N().S("\nfunc (v ")
	qw.N().S(view)
	qw.N().S(") ")
	qw.N().S(exported(f.Name))
	qw.N().S("() ")
	qw.N().S(f.GoType)
	qw.N().S(" {\n")
	if f.GoType == "any" {
		qw.N().S("\treturn v.o.Get(")
		qw.N().Q(f.Name)
		qw.N().S(")\n}\n")
	} else {
		qw.N().S("\tx, _ := v.o.Get(")
		qw.N().Q(f.Name)
		qw.N().S(").(")
		qw.N().S(f.GoType)
		qw.N().S(")\n\treturn x\n}\n")
	}

	qw.N().S("\nfunc (v ")
	qw.N().S(view)
	qw.N().S(") Set")
	qw.N().S(exported(f.Name))
	qw.N().S("(x ")
	qw.N().S(f.GoType)
	qw.N().S(") {\n\tv.o.Set(")
	qw.N().Q(f.Name)
	qw.N().S(", x)\n}\n")
}

func WriteView(w io.Writer, v View) {
	qw := quicktemplate.AcquireWriter(w)
	StreamView(qw, v)
	quicktemplate.ReleaseWriter(qw)
}

func ViewGen(v View) string {
	qb := quicktemplate.AcquireByteBuffer()
	WriteView(qb, v)
	out := string(qb.B)
	quicktemplate.ReleaseByteBuffer(qb)
	return out
}
