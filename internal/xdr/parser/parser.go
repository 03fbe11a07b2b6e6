// Package parser implements a single-token-lookahead recursive-descent
// parser that turns a token stream (internal/xdr/scanner) into a Schema
// (internal/xdr/ast).
//
// Ported from the reference implementation's xdr_codegen/src/parser.rs. As
// there, malformed input is reported by panicking with a line-tagged
// message; Parse recovers that panic and returns it as an error so callers
// never need to deal with partially-built ASTs.
package parser

import (
	"fmt"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
	"github.com/marmos91/onc-rpc/internal/xdr/scanner"
)

// Parser holds a scanner and one token of lookahead.
type Parser struct {
	scanner *scanner.Scanner
	cur     scanner.Token
}

// New creates a Parser over src. Use Parse for the error-returning entry
// point; New is exposed for tests that want to drive individual grammar
// rules directly.
func New(src string) *Parser {
	p := &Parser{scanner: scanner.New(src)}
	p.cur = p.scanner.Next()
	return p
}

// Parse tokenizes and parses a complete XDR schema source file.
func Parse(src string) (schema *ast.Schema, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	p := New(src)
	schema = p.Schema()
	return schema, nil
}

// Schema parses the whole token stream into a Schema.
func (p *Parser) Schema() *ast.Schema {
	schema := &ast.Schema{}
	for p.cur.Kind != scanner.EOF {
		if p.cur.Kind == scanner.Program {
			schema.Programs = append(schema.Programs, p.program())
			continue
		}
		def := p.definition()
		schema.Definitions = append(schema.Definitions, def)
		if definitionUsesString(def) {
			schema.ContainsString = true
		}
	}
	return schema
}

func definitionUsesString(def ast.Definition) bool {
	td, ok := def.(*ast.XdrTypeDef)
	if !ok {
		return false
	}
	return declarationUsesString(td.Decl)
}

func declarationUsesString(d ast.Declaration) bool {
	if d.Void || d.Named == nil {
		return false
	}
	if d.Named.Kind.Tag != ast.KindArray || d.Named.Kind.Array == nil {
		return false
	}
	return d.Named.Kind.Array.Kind.Tag == ast.ArrayAscii
}

func (p *Parser) next() scanner.Token {
	tok := p.cur
	p.cur = p.scanner.Next()
	return tok
}

func (p *Parser) expect(kind scanner.TokenKind, msg string) scanner.Token {
	if p.cur.Kind != kind {
		p.errorf("%s (got token kind %d)", msg, p.cur.Kind)
	}
	return p.next()
}

func (p *Parser) expectIdentifier() string {
	return p.expect(scanner.Identifier, "expected identifier").Text
}

func (p *Parser) errorf(format string, args ...any) {
	panic(fmt.Errorf("xdr parse error at line %d: %s", p.cur.Line, fmt.Sprintf(format, args...)))
}

func (p *Parser) value() ast.Value {
	switch p.cur.Kind {
	case scanner.Number:
		return ast.IntValue(p.next().Num)
	case scanner.Identifier:
		return ast.NameValue(p.next().Text)
	default:
		p.errorf("expected a number or identifier value")
		return ast.Value{}
	}
}

// definition parses one top-level const/typedef/struct/enum/union.
func (p *Parser) definition() ast.Definition {
	switch p.cur.Kind {
	case scanner.Const:
		return p.constDefinition()
	case scanner.Typedef:
		return p.typeDef()
	case scanner.Struct:
		return p.structDef()
	case scanner.Enum:
		return p.enumDef()
	case scanner.Union:
		return p.unionDef()
	default:
		p.errorf("expected a definition (const/typedef/struct/enum/union)")
		return nil
	}
}

func (p *Parser) constDefinition() *ast.ConstDefinition {
	p.next() // const
	name := p.expectIdentifier()
	p.expect(scanner.Equal, "expected '=' in const definition")
	val := p.value()
	p.expect(scanner.Semicolon, "expected ';' after const definition")
	return &ast.ConstDefinition{Name: name, Value: val}
}

func (p *Parser) typeDef() *ast.XdrTypeDef {
	p.next() // typedef
	decl := p.declaration()
	if decl.Void {
		p.errorf("void typedef is not allowed")
	}
	p.expect(scanner.Semicolon, "expected ';' after typedef")
	return &ast.XdrTypeDef{Name: decl.Named.Name, Decl: decl}
}

func (p *Parser) structDef() *ast.XdrStruct {
	p.next() // struct
	name := p.expectIdentifier()
	p.expect(scanner.LeftBrace, "expected '{' in struct body")

	var members []ast.Declaration
	for p.cur.Kind != scanner.RightBrace {
		d := p.declaration()
		p.expect(scanner.Semicolon, "expected ';' after struct member")
		members = append(members, d)
	}
	if len(members) == 0 {
		p.errorf("struct %s has an empty body", name)
	}
	p.expect(scanner.RightBrace, "expected '}' to close struct body")
	p.expect(scanner.Semicolon, "expected ';' after struct definition")
	return &ast.XdrStruct{Name: name, Members: members}
}

func (p *Parser) enumDef() *ast.XdrEnum {
	p.next() // enum
	name := p.expectIdentifier()
	p.expect(scanner.LeftBrace, "expected '{' in enum body")

	var variants []ast.EnumVariant
	for {
		vname := p.expectIdentifier()
		p.expect(scanner.Equal, "expected '=' in enum variant")
		val := p.value()
		variants = append(variants, ast.EnumVariant{Name: vname, Value: val})
		if p.cur.Kind != scanner.Comma {
			break
		}
		p.next() // ','
		if p.cur.Kind == scanner.RightBrace {
			break // trailing comma
		}
	}
	if len(variants) == 0 {
		p.errorf("enum %s has an empty body", name)
	}
	p.expect(scanner.RightBrace, "expected '}' to close enum body")
	p.expect(scanner.Semicolon, "expected ';' after enum definition")
	return &ast.XdrEnum{Name: name, Variants: variants}
}

func (p *Parser) unionDef() *ast.XdrUnion {
	p.next() // union
	name := p.expectIdentifier()
	p.expect(scanner.Switch, "expected 'switch' in union definition")
	p.expect(scanner.LeftParen, "expected '(' after switch")

	isBool, discName := p.unionDiscriminant()

	p.expect(scanner.RightParen, "expected ')' after switch discriminant")
	p.expect(scanner.LeftBrace, "expected '{' in union body")

	var body ast.XdrUnionBody
	if isBool {
		body = p.unionBoolBody()
	} else {
		body = p.unionEnumBody(discName)
	}

	p.expect(scanner.RightBrace, "expected '}' to close union body")
	p.expect(scanner.Semicolon, "expected ';' after union definition")
	return &ast.XdrUnion{Name: name, Body: body}
}

// unionDiscriminant parses the switch(...) declaration and reports whether
// the body is Bool-shaped, plus the discriminant enum name (empty for a
// bare `unsigned`/`unsigned int` discriminant).
func (p *Parser) unionDiscriminant() (isBool bool, discName string) {
	switch p.cur.Kind {
	case scanner.Int:
		p.errorf("an 'int' discriminant is not supported; use 'unsigned' or a named enum")
		return false, ""
	case scanner.Bool:
		p.next()
		p.expectIdentifier() // discriminant variable name, unused
		return true, ""
	case scanner.Unsigned:
		p.next()
		if p.cur.Kind == scanner.Int {
			p.next()
		}
		p.expectIdentifier()
		return false, ""
	case scanner.Identifier:
		enumName := p.next().Text
		p.expectIdentifier()
		return false, enumName
	default:
		p.errorf("unsupported union discriminant type")
		return false, ""
	}
}

// armDeclaration parses the `void;` or `<decl>;` following a case/default
// label inside a union body.
func (p *Parser) armDeclaration() ast.Declaration {
	if p.cur.Kind == scanner.Void {
		p.next()
		p.expect(scanner.Semicolon, "expected ';' after void arm")
		return ast.VoidDeclaration
	}
	d := p.declaration()
	p.expect(scanner.Semicolon, "expected ';' after union arm declaration")
	return d
}

func (p *Parser) unionBoolBody() ast.XdrUnionBody {
	p.expect(scanner.Case, "bool union's first arm must be 'case TRUE:'")
	p.expect(scanner.True, "bool union's first arm must be 'case TRUE:'")
	p.expect(scanner.Colon, "expected ':' after TRUE")
	trueArm := p.armDeclaration()

	switch p.cur.Kind {
	case scanner.Case:
		p.next()
		p.expect(scanner.False, "bool union's second arm must be 'case FALSE:' or 'default:'")
		p.expect(scanner.Colon, "expected ':' after FALSE")
	case scanner.Default:
		p.next()
		p.expect(scanner.Colon, "expected ':' after default")
	default:
		p.errorf("bool union's second arm must be 'case FALSE:' or 'default:'")
	}
	p.expect(scanner.Void, "bool union's false arm must be void")
	p.expect(scanner.Semicolon, "expected ';' after void")

	return ast.XdrUnionBoolBody{TrueArm: trueArm}
}

func (p *Parser) unionEnumBody(discName string) ast.XdrUnionBody {
	var arms []ast.UnionArm
	var defaultArm *ast.Declaration

	for p.cur.Kind == scanner.Case {
		var pending []ast.Value
		for p.cur.Kind == scanner.Case {
			p.next()
			pending = append(pending, p.value())
			p.expect(scanner.Colon, "expected ':' after case value")
			if p.cur.Kind == scanner.Case {
				continue
			}
			break
		}
		decl := p.armDeclaration()
		for _, v := range pending {
			arms = append(arms, ast.UnionArm{Value: v, Decl: decl})
		}
	}

	if p.cur.Kind == scanner.Default {
		p.next()
		p.expect(scanner.Colon, "expected ':' after default")
		d := p.armDeclaration()
		defaultArm = &d
	}

	if len(arms) == 0 {
		p.errorf("union has no case arms")
	}

	return ast.XdrUnionEnumBody{Discriminant: discName, Arms: arms, DefaultArm: defaultArm}
}

// program parses a `program NAME { version... } = ID;` block.
func (p *Parser) program() ast.Program {
	p.next() // program
	name := p.expectIdentifier()
	p.expect(scanner.LeftBrace, "expected '{' in program body")

	var versions []ast.ProgramVersion
	for p.cur.Kind != scanner.RightBrace {
		versions = append(versions, p.programVersion())
	}
	if len(versions) == 0 {
		p.errorf("program %s declares no versions", name)
	}
	p.expect(scanner.RightBrace, "expected '}' to close program body")
	p.expect(scanner.Equal, "expected '=' after program body")
	id := p.value()
	p.expect(scanner.Semicolon, "expected ';' after program definition")
	return ast.Program{Name: name, ID: id, Versions: versions}
}

func (p *Parser) programVersion() ast.ProgramVersion {
	p.expect(scanner.Version, "expected 'version' inside program body")
	name := p.expectIdentifier()
	p.expect(scanner.LeftBrace, "expected '{' in version body")

	var procs []ast.Procedure
	for p.cur.Kind != scanner.RightBrace {
		procs = append(procs, p.procedure())
	}
	if len(procs) == 0 {
		p.errorf("version %s declares no procedures", name)
	}
	p.expect(scanner.RightBrace, "expected '}' to close version body")
	p.expect(scanner.Equal, "expected '=' after version body")
	id := p.value()
	p.expect(scanner.Semicolon, "expected ';' after version definition")
	return ast.ProgramVersion{Name: name, ID: id, Procedures: procs}
}

func (p *Parser) procedure() ast.Procedure {
	ret := p.procedureType()
	name := p.expectIdentifier()
	p.expect(scanner.LeftParen, "expected '(' in procedure declaration")
	arg := p.procedureType()
	p.expect(scanner.RightParen, "expected ')' in procedure declaration")
	p.expect(scanner.Equal, "expected '=' after procedure declaration")
	id := p.value()
	p.expect(scanner.Semicolon, "expected ';' after procedure definition")
	return ast.Procedure{Name: name, ID: id, ArgType: arg, RetType: ret}
}

func (p *Parser) procedureType() ast.XdrType {
	if p.cur.Kind == scanner.Void {
		p.next()
		return ast.XdrType{IsVoid: true}
	}
	return p.xdrType()
}

// xdrType parses a scalar type name, without consuming a following `*` or
// declarator — that is the caller's job (declaration/procedureType).
func (p *Parser) xdrType() ast.XdrType {
	switch p.cur.Kind {
	case scanner.Int:
		p.next()
		return ast.PrimitiveType(ast.TypeInt)
	case scanner.Unsigned:
		p.next()
		switch p.cur.Kind {
		case scanner.Int:
			p.next()
			return ast.PrimitiveType(ast.TypeUInt)
		case scanner.Long:
			p.next()
			return ast.PrimitiveType(ast.TypeUInt)
		case scanner.Hyper:
			p.next()
			return ast.PrimitiveType(ast.TypeUHyper)
		default:
			// Bare `unsigned` with no following type: permissive extension
			// observed in real-world schemas, treated as u32.
			return ast.PrimitiveType(ast.TypeUInt)
		}
	case scanner.Long:
		p.next()
		// `long` is treated as a 32-bit signed int (see NFSv3's own
		// `typedef unsigned long uint32`-style usage).
		return ast.PrimitiveType(ast.TypeInt)
	case scanner.Hyper:
		p.next()
		return ast.PrimitiveType(ast.TypeHyper)
	case scanner.Float:
		p.next()
		return ast.PrimitiveType(ast.TypeFloat)
	case scanner.Double:
		p.next()
		return ast.PrimitiveType(ast.TypeDouble)
	case scanner.Quadruple:
		p.next()
		return ast.PrimitiveType(ast.TypeQuadruple)
	case scanner.Bool:
		p.next()
		return ast.PrimitiveType(ast.TypeBool)
	case scanner.Identifier:
		return ast.NamedType(p.next().Text)
	default:
		p.errorf("expected a type specifier")
		return ast.XdrType{}
	}
}

// declaration parses a struct/union-member/procedure-arg style declaration:
// void, `opaque`/`string` array, scalar, user-type array, or optional
// (`TYPE *name`).
func (p *Parser) declaration() ast.Declaration {
	if p.cur.Kind == scanner.Void {
		p.next()
		return ast.VoidDeclaration
	}
	if p.cur.Kind == scanner.Opaque || p.cur.Kind == scanner.String {
		return p.opaqueOrStringDeclaration()
	}

	typ := p.xdrType()

	if p.cur.Kind == scanner.Star {
		p.next()
		name := p.expectIdentifier()
		return ast.NamedDecl(ast.NamedDeclaration{Name: name, Kind: ast.OptionalKind(typ)})
	}

	name := p.expectIdentifier()
	if p.cur.Kind == scanner.LeftBracket || p.cur.Kind == scanner.LessThan {
		arr := p.arraySuffix(ast.ArrayKind{Tag: ast.ArrayUserType, Elem: typ})
		return ast.NamedDecl(ast.NamedDeclaration{Name: name, Kind: ast.ArrayKindOf(arr)})
	}
	return ast.NamedDecl(ast.NamedDeclaration{Name: name, Kind: ast.ScalarKind(typ)})
}

func (p *Parser) opaqueOrStringDeclaration() ast.Declaration {
	isString := p.cur.Kind == scanner.String
	p.next() // opaque | string
	name := p.expectIdentifier()

	if isString && p.cur.Kind == scanner.LeftBracket {
		p.errorf("fixed-size string %s is not allowed; strings must use <N> or <>", name)
	}

	kindTag := ast.ArrayByte
	if isString {
		kindTag = ast.ArrayAscii
	}
	arr := p.arraySuffix(ast.ArrayKind{Tag: kindTag})
	return ast.NamedDecl(ast.NamedDeclaration{Name: name, Kind: ast.ArrayKindOf(arr)})
}

// arraySuffix parses the `[N]` fixed-size or `<N>`/`<>` variable-size
// specifier immediately following an array declarator's name.
func (p *Parser) arraySuffix(kind ast.ArrayKind) ast.Array {
	switch p.cur.Kind {
	case scanner.LeftBracket:
		p.next()
		n := p.value()
		p.expect(scanner.RightBracket, "expected ']' to close fixed-size array")
		return ast.Array{Kind: kind, Size: ast.ArraySize{Tag: ast.SizeFixed, Bound: n}}
	case scanner.LessThan:
		p.next()
		if p.cur.Kind == scanner.GreaterThan {
			p.next()
			return ast.Array{Kind: kind, Size: ast.ArraySize{Tag: ast.SizeUnlimited}}
		}
		n := p.value()
		p.expect(scanner.GreaterThan, "expected '>' to close variable-size array")
		return ast.Array{Kind: kind, Size: ast.ArraySize{Tag: ast.SizeLimited, Bound: n}}
	default:
		p.errorf("expected '[' or '<' array size specifier")
		return ast.Array{}
	}
}
