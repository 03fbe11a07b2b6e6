// Allocating serializer emission: MarshalAlloc() []byte methods that build
// and return a fresh buffer, growing it with append as needed.
//
// Grounded on xdr_codegen/src/codegen/alloc.rs: the reference compiler's
// "serialize by appending to a growable buffer" pass. The non-allocating
// counterpart lives in noalloc.go, the decode side in deserialize.go.
package codegen

import (
	"github.com/marmos91/onc-rpc/internal/xdr/ast"
)

// emitAllocScalar writes the statement appending a primitive or named-type
// scalar expr onto "buf".
func (g *generator) emitAllocScalar(out *CodeBuf, expr string, t ast.XdrType) {
	switch t.Prim {
	case ast.TypeInt:
		out.Line("buf = xdrruntime.AppendI32(buf, int32(%s))", expr)
	case ast.TypeUInt:
		out.Line("buf = xdrruntime.AppendU32(buf, uint32(%s))", expr)
	case ast.TypeHyper:
		out.Line("buf = xdrruntime.AppendI64(buf, int64(%s))", expr)
	case ast.TypeUHyper:
		out.Line("buf = xdrruntime.AppendU64(buf, uint64(%s))", expr)
	case ast.TypeFloat:
		out.Line("buf = xdrruntime.AppendU32(buf, math.Float32bits(float32(%s)))", expr)
	case ast.TypeDouble, ast.TypeQuadruple:
		out.Line("buf = xdrruntime.AppendU64(buf, math.Float64bits(float64(%s)))", expr)
	case ast.TypeBool:
		out.Line("buf = xdrruntime.AppendBool(buf, bool(%s))", expr)
	case ast.TypeName:
		out.Line("buf = append(buf, %s.MarshalAlloc()...)", expr)
	}
}

func (g *generator) emitAllocArray(out *CodeBuf, expr string, a *ast.Array) {
	limit := g.arrayLimit(a.Size)
	switch a.Kind.Tag {
	case ast.ArrayByte:
		if a.Size.Tag == ast.SizeFixed {
			out.Line("buf = xdrruntime.AppendOpaqueFixed(buf, %s[:])", expr)
		} else {
			out.Line("buf = xdrruntime.AppendOpaqueVar(buf, %s, %s)", expr, limit)
		}
	case ast.ArrayAscii:
		out.Line("buf = xdrruntime.AppendString(buf, %s, %s)", expr, limit)
	case ast.ArrayUserType:
		if a.Size.Tag != ast.SizeFixed {
			out.Line("if %s > 0 && uint64(len(%s)) > %s {", limit, expr, limit)
			out.Indent()
			out.Line(`panic("xdr: array length exceeds declared limit")`)
			out.Dedent()
			out.Line("}")
			out.Line("buf = xdrruntime.AppendU32(buf, uint32(len(%s)))", expr)
		}
		out.Line("for _, elem := range %s {", expr)
		out.Indent()
		g.emitAllocScalar(out, "elem", a.Kind.Elem)
		out.Dedent()
		out.Line("}")
	}
}

func (g *generator) emitAllocOptional(out *CodeBuf, expr string, t ast.XdrType) {
	out.Line("if %s == nil {", expr)
	out.Indent()
	out.Line("buf = xdrruntime.AppendBool(buf, false)")
	out.Dedent()
	out.Line("} else {")
	out.Indent()
	out.Line("buf = xdrruntime.AppendBool(buf, true)")
	if t.Prim == ast.TypeName {
		out.Line("buf = append(buf, %s.MarshalAlloc()...)", expr)
	} else {
		g.emitAllocScalar(out, "(*"+expr+")", t)
	}
	out.Dedent()
	out.Line("}")
}

// emitAllocDecl dispatches a Declaration's member/arm representation to the
// scalar/array/optional emitter. A void Declaration writes nothing.
func (g *generator) emitAllocDecl(out *CodeBuf, expr string, d ast.Declaration) {
	if d.Void || d.Named == nil {
		return
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		g.emitAllocScalar(out, expr, kind.Scalar)
	case ast.KindOptional:
		g.emitAllocOptional(out, expr, kind.Optional)
	case ast.KindArray:
		g.emitAllocArray(out, expr, kind.Array)
	}
}
