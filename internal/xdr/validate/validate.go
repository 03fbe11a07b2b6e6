// Package validate resolves names and enforces the schema-level invariants
// described in spec.md §3/§4.C: every Name must resolve, self-referential
// optionals may only occur as a struct's last member, and EnumLike union
// case values that name an enum variant must resolve against the union's
// discriminant enum.
//
// Ported from xdr_codegen/src/validate.rs.
package validate

import (
	"fmt"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
	"github.com/marmos91/onc-rpc/internal/xdr/symtab"
)

// Schema is the output of a successful validation pass: the original
// schema's definitions and programs (structs mutated in place when a
// trailing self-referential optional was stripped), plus the symbol table
// built along the way.
type Schema struct {
	Symbols        *symtab.SymbolTable
	Definitions    []ast.Definition
	Programs       []ast.Program
	ContainsString bool
}

// Validate resolves and checks schema, returning a validated view of it.
func Validate(schema *ast.Schema) (*Schema, error) {
	tab := symtab.Build(schema)

	if err := resolveAllNames(schema, tab); err != nil {
		return nil, err
	}

	for _, def := range schema.Definitions {
		switch d := def.(type) {
		case *ast.XdrStruct:
			if err := validateStruct(d, tab); err != nil {
				return nil, err
			}
		case *ast.XdrUnion:
			if err := validateUnion(d, tab); err != nil {
				return nil, err
			}
		}
	}

	return &Schema{
		Symbols:        tab,
		Definitions:    schema.Definitions,
		Programs:       schema.Programs,
		ContainsString: schema.ContainsString,
	}, nil
}

// validateStruct implements spec.md §4.C rule 1: scan members in order; a
// non-last self-referential optional is an error, the last one is stripped
// from Members and recorded via SelfReferentialOptional.
func validateStruct(s *ast.XdrStruct, tab *symtab.SymbolTable) error {
	for i, m := range s.Members {
		if !isOptionalOfName(s.Name, m, tab) {
			continue
		}
		if i != len(s.Members)-1 {
			return fmt.Errorf("unsupported optional: %s is self-referential but not its last member", s.Name)
		}
		s.SelfReferentialOptional = true
		s.Members = s.Members[:i]
	}
	return nil
}

// isOptionalOfName reports whether decl is, directly or through a chain of
// typedefs, an Optional(Name == outerName) — the self-referential-list
// pattern `struct S { ...; S *next; }`.
func isOptionalOfName(outerName string, decl ast.Declaration, tab *symtab.SymbolTable) bool {
	if decl.Void || decl.Named == nil {
		return false
	}
	kind := decl.Named.Kind
	switch kind.Tag {
	case ast.KindOptional:
		return typeNameResolvesTo(kind.Optional, outerName, tab)
	case ast.KindScalar:
		if kind.Scalar.Prim != ast.TypeName {
			return false
		}
		def, err := tab.Lookup(kind.Scalar.Name)
		if err != nil {
			return false
		}
		td, ok := def.(*ast.XdrTypeDef)
		if !ok {
			return false
		}
		return isOptionalOfName(outerName, td.Decl, tab)
	default:
		return false
	}
}

// typeNameResolvesTo follows a chain of scalar typedefs from t until it
// either reaches outerName or a non-typedef definition.
func typeNameResolvesTo(t ast.XdrType, outerName string, tab *symtab.SymbolTable) bool {
	if t.Prim != ast.TypeName {
		return false
	}
	if t.Name == outerName {
		return true
	}
	def, err := tab.Lookup(t.Name)
	if err != nil {
		return false
	}
	td, ok := def.(*ast.XdrTypeDef)
	if !ok || td.Decl.Void || td.Decl.Named == nil {
		return false
	}
	if td.Decl.Named.Kind.Tag != ast.KindScalar {
		return false
	}
	return typeNameResolvesTo(td.Decl.Named.Kind.Scalar, outerName, tab)
}

// validateUnion implements spec.md §4.C rule 2: every EnumLike case value
// that names a variant (rather than an integer literal) must resolve
// against the union's discriminant enum.
func validateUnion(u *ast.XdrUnion, tab *symtab.SymbolTable) error {
	body, ok := u.Body.(ast.XdrUnionEnumBody)
	if !ok || body.Discriminant == "" {
		return nil
	}

	def, err := tab.Lookup(body.Discriminant)
	if err != nil {
		return fmt.Errorf("union %s: %w", u.Name, err)
	}
	enumDef, ok := def.(*ast.XdrEnum)
	if !ok {
		return fmt.Errorf("union %s: discriminant %s is not an enum", u.Name, body.Discriminant)
	}

	for _, arm := range body.Arms {
		if !arm.Value.IsName {
			continue
		}
		if _, ok := enumDef.LookupValue(arm.Value.Name); !ok {
			return fmt.Errorf("union %s: case %s does not match any variant of enum %s", u.Name, arm.Value.Name, body.Discriminant)
		}
	}
	return nil
}

// resolveAllNames walks every Name reference reachable from the schema and
// confirms it resolves through tab, surfacing UndefinedName errors before
// codegen has to deal with them.
func resolveAllNames(schema *ast.Schema, tab *symtab.SymbolTable) error {
	for _, def := range schema.Definitions {
		switch d := def.(type) {
		case *ast.XdrTypeDef:
			if err := resolveDeclaration(d.Decl, tab); err != nil {
				return err
			}
		case *ast.XdrStruct:
			for _, m := range d.Members {
				if err := resolveDeclaration(m, tab); err != nil {
					return err
				}
			}
		case *ast.XdrUnion:
			if err := resolveUnionBody(d.Body, tab); err != nil {
				return err
			}
		}
	}
	for _, prog := range schema.Programs {
		for _, ver := range prog.Versions {
			for _, proc := range ver.Procedures {
				if err := resolveType(proc.ArgType, tab); err != nil {
					return err
				}
				if err := resolveType(proc.RetType, tab); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func resolveUnionBody(body ast.XdrUnionBody, tab *symtab.SymbolTable) error {
	switch b := body.(type) {
	case ast.XdrUnionBoolBody:
		return resolveDeclaration(b.TrueArm, tab)
	case ast.XdrUnionEnumBody:
		for _, arm := range b.Arms {
			if err := resolveDeclaration(arm.Decl, tab); err != nil {
				return err
			}
		}
		if b.DefaultArm != nil {
			return resolveDeclaration(*b.DefaultArm, tab)
		}
	}
	return nil
}

func resolveDeclaration(d ast.Declaration, tab *symtab.SymbolTable) error {
	if d.Void || d.Named == nil {
		return nil
	}
	kind := d.Named.Kind
	switch kind.Tag {
	case ast.KindScalar:
		return resolveType(kind.Scalar, tab)
	case ast.KindOptional:
		return resolveType(kind.Optional, tab)
	case ast.KindArray:
		if kind.Array.Kind.Tag == ast.ArrayUserType {
			return resolveType(kind.Array.Kind.Elem, tab)
		}
	}
	return nil
}

func resolveType(t ast.XdrType, tab *symtab.SymbolTable) error {
	if t.IsVoid || t.Prim != ast.TypeName {
		return nil
	}
	_, err := tab.Lookup(t.Name)
	return err
}
