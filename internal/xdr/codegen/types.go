package codegen

import (
	"fmt"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
)

// scalarGoType maps an XDR primitive to its Go representation. `quadruple`
// has no native Go type; the reference compiler itself treats it as an
// alias for double (xdr_codegen/src/codegen/mod.rs), so we follow suit and
// map it to float64 as well.
func scalarGoType(t ast.XdrType) string {
	switch t.Prim {
	case ast.TypeInt:
		return "int32"
	case ast.TypeUInt:
		return "uint32"
	case ast.TypeHyper:
		return "int64"
	case ast.TypeUHyper:
		return "uint64"
	case ast.TypeFloat:
		return "float32"
	case ast.TypeDouble, ast.TypeQuadruple:
		return "float64"
	case ast.TypeBool:
		return "bool"
	case ast.TypeName:
		return goName(t.Name)
	default:
		return "int32"
	}
}

// arrayGoType maps an Array declaration to its Go representation: fixed
// opaque is a byte array, variable opaque is a byte slice, ascii (`string`)
// is a Go string regardless of size limit (the limit is enforced at
// marshal/unmarshal time, not in the type), and user-type arrays are
// slices of the element's Go type.
func (g *generator) arrayGoType(a *ast.Array) string {
	switch a.Kind.Tag {
	case ast.ArrayAscii:
		return "string"
	case ast.ArrayByte:
		if a.Size.Tag == ast.SizeFixed {
			return fmt.Sprintf("[%s]byte", g.valueLiteral(a.Size.Bound))
		}
		return "[]byte"
	case ast.ArrayUserType:
		elem := scalarGoType(a.Kind.Elem)
		return "[]" + elem
	default:
		return "[]byte"
	}
}

// declGoType returns the Go field type for a Declaration, and whether it is
// a fixed-size byte array (the one shape that needs `[N]byte` instead of a
// slice when copying in Unmarshal).
func (g *generator) declGoType(d ast.Declaration) (string, bool) {
	if d.Void || d.Named == nil {
		return "struct{}", false
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		return scalarGoType(kind.Scalar), false
	case ast.KindOptional:
		return "*" + scalarGoType(kind.Optional), false
	case ast.KindArray:
		t := g.arrayGoType(kind.Array)
		fixed := kind.Array.Kind.Tag == ast.ArrayByte && kind.Array.Size.Tag == ast.SizeFixed
		return t, fixed
	default:
		return "int32", false
	}
}

// arrayLimit returns the declared size bound as a constant expression
// suitable for passing to xdrruntime's limit-checked helpers, or "0" for
// unlimited (xdrruntime treats a zero limit as "no limit").
func (g *generator) arrayLimit(size ast.ArraySize) string {
	switch size.Tag {
	case ast.SizeFixed, ast.SizeLimited:
		return g.valueLiteral(size.Bound)
	default:
		return "0"
	}
}
