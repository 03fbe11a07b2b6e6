package codegen

import "github.com/marmos91/onc-rpc/internal/xdr/ast"

// schemaUsesMath reports whether any declaration reachable from schema uses
// `float`, `double`, or `quadruple` — the only XDR primitives whose wire
// encoding (IEEE-754 bit patterns) needs the standard library's math
// package (Float32bits/Float64bits and their inverses).
func schemaUsesMath(schema []ast.Definition, programs []ast.Program) bool {
	for _, def := range schema {
		switch d := def.(type) {
		case *ast.XdrTypeDef:
			if declUsesMath(d.Decl) {
				return true
			}
		case *ast.XdrStruct:
			for _, m := range d.Members {
				if declUsesMath(m) {
					return true
				}
			}
		case *ast.XdrUnion:
			if unionBodyUsesMath(d.Body) {
				return true
			}
		}
	}
	for _, prog := range programs {
		for _, ver := range prog.Versions {
			for _, proc := range ver.Procedures {
				if typeUsesMath(proc.ArgType) || typeUsesMath(proc.RetType) {
					return true
				}
			}
		}
	}
	return false
}

func unionBodyUsesMath(body ast.XdrUnionBody) bool {
	switch b := body.(type) {
	case ast.XdrUnionBoolBody:
		return declUsesMath(b.TrueArm)
	case ast.XdrUnionEnumBody:
		for _, arm := range b.Arms {
			if declUsesMath(arm.Decl) {
				return true
			}
		}
		if b.DefaultArm != nil {
			return declUsesMath(*b.DefaultArm)
		}
	}
	return false
}

func declUsesMath(d ast.Declaration) bool {
	if d.Void || d.Named == nil {
		return false
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		return typeUsesMath(kind.Scalar)
	case ast.KindOptional:
		return typeUsesMath(kind.Optional)
	case ast.KindArray:
		return kind.Array.Kind.Tag == ast.ArrayUserType && typeUsesMath(kind.Array.Kind.Elem)
	}
	return false
}

func typeUsesMath(t ast.XdrType) bool {
	return t.Prim == ast.TypeFloat || t.Prim == ast.TypeDouble || t.Prim == ast.TypeQuadruple
}
