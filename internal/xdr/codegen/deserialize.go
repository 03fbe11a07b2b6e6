// Decode-side emission: Unmarshal(r *xdrruntime.Reader) error methods.
//
// Grounded on xdr_codegen/src/codegen/deserialize.rs: each field reads into
// its own braced block so sibling fields never collide on a `val`/`err`
// temporary, mirroring the reference compiler's per-field block structure.
package codegen

import "github.com/marmos91/onc-rpc/internal/xdr/ast"

// scalarReaderCall returns the xdrruntime.Reader method call (sans "r.")
// for a primitive; TypeName is handled separately by the caller since it
// recurses into the named type's own Unmarshal rather than a Reader method.
func scalarReaderCall(t ast.XdrType) string {
	switch t.Prim {
	case ast.TypeInt:
		return "I32()"
	case ast.TypeUInt:
		return "U32()"
	case ast.TypeHyper:
		return "I64()"
	case ast.TypeUHyper:
		return "U64()"
	case ast.TypeFloat:
		return "U32()"
	case ast.TypeDouble, ast.TypeQuadruple:
		return "U64()"
	case ast.TypeBool:
		return "Bool()"
	default:
		return ""
	}
}

// emitDeserializeScalar writes the block that reads a primitive or named
// scalar into the lvalue expr.
func (g *generator) emitDeserializeScalar(out *CodeBuf, expr string, t ast.XdrType) {
	if t.Prim == ast.TypeName {
		out.Line("if err := %s.Unmarshal(r); err != nil {", expr)
		out.Indent()
		out.Line("return err")
		out.Dedent()
		out.Line("}")
		return
	}

	out.Line("{")
	out.Indent()
	out.Line("val, err := r.%s", scalarReaderCall(t))
	out.Line("if err != nil {")
	out.Indent()
	out.Line("return err")
	out.Dedent()
	out.Line("}")
	switch t.Prim {
	case ast.TypeFloat:
		out.Line("%s = math.Float32frombits(val)", expr)
	case ast.TypeDouble, ast.TypeQuadruple:
		out.Line("%s = math.Float64frombits(val)", expr)
	default:
		out.Line("%s = %s(val)", expr, scalarGoType(t))
	}
	out.Dedent()
	out.Line("}")
}

func (g *generator) emitDeserializeOptional(out *CodeBuf, expr string, t ast.XdrType) {
	out.Line("{")
	out.Indent()
	out.Line("present, err := r.Bool()")
	out.Line("if err != nil {")
	out.Indent()
	out.Line("return err")
	out.Dedent()
	out.Line("}")
	out.Line("if present {")
	out.Indent()
	out.Line("%s = new(%s)", expr, scalarGoType(t))
	if t.Prim == ast.TypeName {
		out.Line("if err := %s.Unmarshal(r); err != nil {", expr)
		out.Indent()
		out.Line("return err")
		out.Dedent()
		out.Line("}")
	} else {
		g.emitDeserializeScalar(out, "(*"+expr+")", t)
	}
	out.Dedent()
	out.Line("} else {")
	out.Indent()
	out.Line("%s = nil", expr)
	out.Dedent()
	out.Line("}")
	out.Dedent()
	out.Line("}")
}

func (g *generator) emitDeserializeArray(out *CodeBuf, expr string, a *ast.Array) {
	limit := g.arrayLimit(a.Size)
	switch a.Kind.Tag {
	case ast.ArrayByte:
		out.Line("{")
		out.Indent()
		if a.Size.Tag == ast.SizeFixed {
			out.Line("b, err := r.OpaqueFixed(%s)", limit)
			out.Line("if err != nil {")
			out.Indent()
			out.Line("return err")
			out.Dedent()
			out.Line("}")
			out.Line("copy(%s[:], b)", expr)
		} else {
			out.Line("b, err := r.OpaqueVar(%s)", limit)
			out.Line("if err != nil {")
			out.Indent()
			out.Line("return err")
			out.Dedent()
			out.Line("}")
			out.Line("%s = b", expr)
		}
		out.Dedent()
		out.Line("}")
	case ast.ArrayAscii:
		out.Line("{")
		out.Indent()
		out.Line("s, err := r.String(%s)", limit)
		out.Line("if err != nil {")
		out.Indent()
		out.Line("return err")
		out.Dedent()
		out.Line("}")
		out.Line("%s = s", expr)
		out.Dedent()
		out.Line("}")
	case ast.ArrayUserType:
		elemType := scalarGoType(a.Kind.Elem)
		out.Line("{")
		out.Indent()
		if a.Size.Tag == ast.SizeFixed {
			out.Line("n := %s", limit)
		} else {
			out.Line("n64, err := r.U32()")
			out.Line("if err != nil {")
			out.Indent()
			out.Line("return err")
			out.Dedent()
			out.Line("}")
			out.Line("n := int(n64)")
			if limit != "0" {
				out.Line("if uint64(n) > %s {", limit)
				out.Indent()
				out.Line(`return &xdrruntime.DeserializeError{Reason: "array length exceeds declared limit"}`)
				out.Dedent()
				out.Line("}")
			}
		}
		out.Line("items := make([]%s, n)", elemType)
		out.Line("for i := range items {")
		out.Indent()
		g.emitDeserializeScalar(out, "items[i]", a.Kind.Elem)
		out.Dedent()
		out.Line("}")
		out.Line("%s = items", expr)
		out.Dedent()
		out.Line("}")
	}
}

func (g *generator) emitDeserializeDecl(out *CodeBuf, expr string, d ast.Declaration) {
	if d.Void || d.Named == nil {
		return
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		g.emitDeserializeScalar(out, expr, kind.Scalar)
	case ast.KindOptional:
		g.emitDeserializeOptional(out, expr, kind.Optional)
	case ast.KindArray:
		g.emitDeserializeArray(out, expr, kind.Array)
	}
}
