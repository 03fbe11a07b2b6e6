// Package ast defines the abstract syntax tree produced by the XDR parser
// (internal/xdr/parser) and consumed by the validator (internal/xdr/validate)
// and code emitter (internal/xdr/codegen).
//
// The shape mirrors RFC 4506 (XDR) plus the program/version/procedure
// extensions of RFC 5531 (ONC RPC): a Schema is an ordered sequence of
// Definitions and Programs.
package ast

// Schema is the root of a parsed XDR source file.
type Schema struct {
	Definitions []Definition
	Programs    []Program

	// ContainsString records whether any typedef in the schema declares an
	// XDR `string`; string members of structs and unions do not set it.
	// internal/xdr/codegen does not read it.
	ContainsString bool
}

// Value is either a literal integer or a reference to a const/enum-variant
// name that must resolve through the symbol table.
type Value struct {
	IsName bool
	Int    uint64
	Name   string
}

// IntValue builds a literal integer Value.
func IntValue(v uint64) Value { return Value{Int: v} }

// NameValue builds a name-reference Value.
func NameValue(name string) Value { return Value{IsName: true, Name: name} }

// Program is a `program NAME { ... } = ID;` block.
type Program struct {
	Name     string
	ID       Value
	Versions []ProgramVersion
}

// ProgramVersion is a `version NAME { ... } = ID;` block inside a Program.
type ProgramVersion struct {
	Name       string
	ID         Value
	Procedures []Procedure
}

// Procedure is a `RetType NAME(ArgType) = ID;` entry inside a ProgramVersion.
type Procedure struct {
	Name    string
	ID      Value
	ArgType XdrType
	RetType XdrType
}

// Definition is one of Const, TypeDef, Struct, Enum, Union. Callers switch on
// the concrete type via a type switch; Kind() exists only for logging.
type Definition interface {
	DefinitionName() string
	Kind() string
}

// ConstDefinition is a `const NAME = VALUE;` top-level definition.
type ConstDefinition struct {
	Name  string
	Value Value
}

func (d *ConstDefinition) DefinitionName() string { return d.Name }
func (d *ConstDefinition) Kind() string            { return "const" }

// XdrTypeDef is a `typedef DECL;` top-level definition. A void typedef is
// rejected by the parser, so Decl is always a Named declaration by the time
// validation runs.
type XdrTypeDef struct {
	Name string
	Decl Declaration
}

func (d *XdrTypeDef) DefinitionName() string { return d.Name }
func (d *XdrTypeDef) Kind() string            { return "typedef" }

// XdrStruct is a `struct NAME { ... };` top-level definition.
type XdrStruct struct {
	Name    string
	Members []Declaration

	// SelfReferentialOptional is set by the validator when the last member
	// was `Optional(Name==Name)` before it was stripped from Members. When
	// true, Members no longer contains that trailing entry: the emitter
	// generates list-style serialization instead (see internal/xdr/codegen).
	SelfReferentialOptional bool
}

func (d *XdrStruct) DefinitionName() string { return d.Name }
func (d *XdrStruct) Kind() string            { return "struct" }

// XdrEnum is an `enum NAME { variant = value, ... };` top-level definition.
type XdrEnum struct {
	Name     string
	Variants []EnumVariant
}

// EnumVariant is one `name = value` entry of an XdrEnum.
type EnumVariant struct {
	Name  string
	Value Value
}

func (d *XdrEnum) DefinitionName() string { return d.Name }
func (d *XdrEnum) Kind() string            { return "enum" }

// LookupValue returns the discriminant value for a variant by name.
func (d *XdrEnum) LookupValue(name string) (Value, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v.Value, true
		}
	}
	return Value{}, false
}

// XdrUnion is a `union NAME switch (disc) { ... };` top-level definition.
type XdrUnion struct {
	Name string
	Body XdrUnionBody
}

func (d *XdrUnion) DefinitionName() string { return d.Name }
func (d *XdrUnion) Kind() string            { return "union" }

// XdrUnionBody is either a Bool-discriminated body or an enum-like one.
type XdrUnionBody interface {
	unionBody()
}

// XdrUnionBoolBody is the body of a union switched on `bool`. The false arm
// is always void by construction (enforced by the parser), so only the true
// arm's declaration is kept.
type XdrUnionBoolBody struct {
	TrueArm Declaration
}

func (XdrUnionBoolBody) unionBody() {}

// XdrUnionEnumBody is the body of a union switched on `unsigned`, `unsigned
// int`, or a named enum. Discriminant is empty when the switch was on a bare
// unsigned (no named enum backs the case values).
type XdrUnionEnumBody struct {
	Discriminant string
	Arms         []UnionArm
	DefaultArm   *Declaration
}

func (XdrUnionEnumBody) unionBody() {}

// UnionArm is one `(case-value, declaration)` pair. Stacked case labels
// (`case A: case B: decl;`) expand to one UnionArm per label, all sharing
// the same Decl.
type UnionArm struct {
	Value Value
	Decl  Declaration
}

// Declaration is either Void (used for typedef-less members and union arms
// with no payload) or a Named declaration.
type Declaration struct {
	Void  bool
	Named *NamedDeclaration
}

// VoidDeclaration is the canonical void Declaration value.
var VoidDeclaration = Declaration{Void: true}

// NamedDecl wraps a NamedDeclaration as a Declaration.
func NamedDecl(n NamedDeclaration) Declaration { return Declaration{Named: &n} }

// NamedDeclaration is a `type name;`, `type name<...>;`, or `type *name;`
// struct/union member or procedure argument.
type NamedDeclaration struct {
	Name string
	Kind DeclarationKind
}

// DeclarationKind distinguishes scalar, array, and optional member shapes.
// Exactly one of Scalar/Array/Optional is meaningful, selected by Tag.
type DeclarationKind struct {
	Tag      DeclKindTag
	Scalar   XdrType
	Array    *Array
	Optional XdrType
}

// DeclKindTag discriminates DeclarationKind's variants.
type DeclKindTag int

const (
	KindScalar DeclKindTag = iota
	KindArray
	KindOptional
)

// ScalarKind builds a scalar DeclarationKind.
func ScalarKind(t XdrType) DeclarationKind { return DeclarationKind{Tag: KindScalar, Scalar: t} }

// ArrayKindOf builds an array DeclarationKind.
func ArrayKindOf(a Array) DeclarationKind { return DeclarationKind{Tag: KindArray, Array: &a} }

// OptionalKind builds an optional DeclarationKind.
func OptionalKind(t XdrType) DeclarationKind { return DeclarationKind{Tag: KindOptional, Optional: t} }

// XdrType is the scalar type vocabulary of XDR, plus Name for any
// user-defined type (struct/enum/union/typedef) resolved later by the
// symbol table.
//
// IsVoid is set only for a procedure's argument or return type spelled
// `void`; it never appears in a struct/union member, array element, or
// optional payload.
type XdrType struct {
	IsVoid bool
	Prim   PrimType
	Name   string // only meaningful when Prim == TypeName
}

// PrimType enumerates XdrType's primitive alternatives.
type PrimType int

const (
	TypeInt PrimType = iota
	TypeUInt
	TypeHyper
	TypeUHyper
	TypeFloat
	TypeDouble
	TypeQuadruple
	TypeBool
	TypeName
)

func PrimitiveType(p PrimType) XdrType { return XdrType{Prim: p} }
func NamedType(name string) XdrType    { return XdrType{Prim: TypeName, Name: name} }

// ArrayKind distinguishes `opaque` (raw bytes), `string` (ASCII bytes), and
// element arrays of a user type.
type ArrayKind struct {
	Tag  ArrayKindTag
	Elem XdrType // only meaningful when Tag == ArrayUserType
}

type ArrayKindTag int

const (
	ArrayByte ArrayKindTag = iota
	ArrayAscii
	ArrayUserType
)

// ArraySize distinguishes fixed-length (`[N]`, no length prefix on the
// wire), limited variable-length (`<N>`), and unlimited variable-length
// (`<>`) arrays.
type ArraySize struct {
	Tag   ArraySizeTag
	Bound Value // meaningful for Fixed and Limited
}

type ArraySizeTag int

const (
	SizeFixed ArraySizeTag = iota
	SizeLimited
	SizeUnlimited
)

// Array is the full shape of an `opaque`/`string`/element array declaration.
type Array struct {
	Kind ArrayKind
	Size ArraySize
}
