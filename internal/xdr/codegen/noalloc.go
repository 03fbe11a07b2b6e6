// Non-allocating serializer emission: MarshalTo(dst []byte, off int) int
// methods that write into a caller-supplied buffer at a running offset,
// returning the offset past what they wrote. Used by a dispatcher reusing
// a pooled buffer (internal/bufpool) instead of allocating per reply.
package codegen

import "github.com/marmos91/onc-rpc/internal/xdr/ast"

func (g *generator) emitNoallocScalar(out *CodeBuf, expr string, t ast.XdrType) {
	switch t.Prim {
	case ast.TypeInt:
		out.Line("off = xdrruntime.PutI32(dst, off, int32(%s))", expr)
	case ast.TypeUInt:
		out.Line("off = xdrruntime.PutU32(dst, off, uint32(%s))", expr)
	case ast.TypeHyper:
		out.Line("off = xdrruntime.PutI64(dst, off, int64(%s))", expr)
	case ast.TypeUHyper:
		out.Line("off = xdrruntime.PutU64(dst, off, uint64(%s))", expr)
	case ast.TypeFloat:
		out.Line("off = xdrruntime.PutU32(dst, off, math.Float32bits(float32(%s)))", expr)
	case ast.TypeDouble, ast.TypeQuadruple:
		out.Line("off = xdrruntime.PutU64(dst, off, math.Float64bits(float64(%s)))", expr)
	case ast.TypeBool:
		out.Line("off = xdrruntime.PutBool(dst, off, bool(%s))", expr)
	case ast.TypeName:
		out.Line("off = %s.MarshalTo(dst, off)", expr)
	}
}

func (g *generator) emitNoallocArray(out *CodeBuf, expr string, a *ast.Array) {
	limit := g.arrayLimit(a.Size)
	switch a.Kind.Tag {
	case ast.ArrayByte:
		if a.Size.Tag == ast.SizeFixed {
			out.Line("off = xdrruntime.PutOpaqueFixed(dst, off, %s[:])", expr)
		} else {
			out.Line("off = xdrruntime.PutOpaqueVar(dst, off, %s, %s)", expr, limit)
		}
	case ast.ArrayAscii:
		out.Line("off = xdrruntime.PutString(dst, off, %s, %s)", expr, limit)
	case ast.ArrayUserType:
		if a.Size.Tag != ast.SizeFixed {
			out.Line("if %s > 0 && uint64(len(%s)) > %s {", limit, expr, limit)
			out.Indent()
			out.Line(`panic("xdr: array length exceeds declared limit")`)
			out.Dedent()
			out.Line("}")
			out.Line("off = xdrruntime.PutU32(dst, off, uint32(len(%s)))", expr)
		}
		out.Line("for _, elem := range %s {", expr)
		out.Indent()
		g.emitNoallocScalar(out, "elem", a.Kind.Elem)
		out.Dedent()
		out.Line("}")
	}
}

func (g *generator) emitNoallocOptional(out *CodeBuf, expr string, t ast.XdrType) {
	out.Line("if %s == nil {", expr)
	out.Indent()
	out.Line("off = xdrruntime.PutBool(dst, off, false)")
	out.Dedent()
	out.Line("} else {")
	out.Indent()
	out.Line("off = xdrruntime.PutBool(dst, off, true)")
	if t.Prim == ast.TypeName {
		out.Line("off = %s.MarshalTo(dst, off)", expr)
	} else {
		g.emitNoallocScalar(out, "(*"+expr+")", t)
	}
	out.Dedent()
	out.Line("}")
}

func (g *generator) emitNoallocDecl(out *CodeBuf, expr string, d ast.Declaration) {
	if d.Void || d.Named == nil {
		return
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		g.emitNoallocScalar(out, expr, kind.Scalar)
	case ast.KindOptional:
		g.emitNoallocOptional(out, expr, kind.Optional)
	case ast.KindArray:
		g.emitNoallocArray(out, expr, kind.Array)
	}
}
