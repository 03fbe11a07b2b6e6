package codegen

import "github.com/marmos91/onc-rpc/internal/xdr/ast"

// emitMarshalMethods emits the three methods for a typedef: the receiver is
// the whole defined type, decl is its (always-Named) underlying shape.
//
// A typedef that is itself a bare reference to another named definition
// (`typedef other_name name;`) is special-cased: the generic scalar path
// would emit `v.MarshalAlloc()`/`v.Unmarshal(r)` calls on v's own type,
// which is exactly the method being defined — infinite recursion. Routing
// through an explicit conversion to the referenced type avoids that.
func (g *generator) emitMarshalMethods(name string, decl ast.Declaration, _ *ast.XdrStruct) {
	if decl.Named != nil && decl.Named.Kind.Tag == ast.KindScalar && decl.Named.Kind.Scalar.Prim == ast.TypeName {
		g.emitTypedefForwarding(name, goName(decl.Named.Kind.Scalar.Name))
		return
	}

	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", name)
	g.out.Indent()
	g.out.Line("var buf []byte")
	g.emitAllocDecl(&g.out, "v", decl)
	g.out.Line("return buf")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", name)
	g.out.Indent()
	g.emitNoallocDecl(&g.out, "v", decl)
	g.out.Line("return off")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", name)
	g.out.Indent()
	g.emitDeserializeDecl(&g.out, "(*v)", decl)
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

// emitTypedefForwarding emits methods for `type Name Other` that simply
// convert to/from Other and call its methods.
func (g *generator) emitTypedefForwarding(name, otherName string) {
	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", name)
	g.out.Indent()
	g.out.Line("return %s(v).MarshalAlloc()", otherName)
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", name)
	g.out.Indent()
	g.out.Line("return %s(v).MarshalTo(dst, off)", otherName)
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", name)
	g.out.Indent()
	g.out.Line("var tmp %s", otherName)
	g.out.Line("if err := tmp.Unmarshal(r); err != nil {")
	g.out.Indent()
	g.out.Line("return err")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("*v = %s(tmp)", name)
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

// emitStructMarshal emits MarshalAlloc and MarshalTo for a struct type,
// field by field in declaration order.
func (g *generator) emitStructMarshal(name string, d *ast.XdrStruct) {
	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", name)
	g.out.Indent()
	g.out.Line("var buf []byte")
	for _, m := range d.Members {
		if m.Void || m.Named == nil {
			continue
		}
		g.emitAllocDecl(&g.out, "v."+goName(m.Named.Name), m)
	}
	g.out.Line("return buf")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", name)
	g.out.Indent()
	for _, m := range d.Members {
		if m.Void || m.Named == nil {
			continue
		}
		g.emitNoallocDecl(&g.out, "v."+goName(m.Named.Name), m)
	}
	g.out.Line("return off")
	g.out.Dedent()
	g.out.Line("}")
}

// emitStructUnmarshal emits Unmarshal for a struct type.
func (g *generator) emitStructUnmarshal(name string, d *ast.XdrStruct) {
	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", name)
	g.out.Indent()
	for _, m := range d.Members {
		if m.Void || m.Named == nil {
			continue
		}
		g.emitDeserializeDecl(&g.out, "v."+goName(m.Named.Name), m)
	}
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

// emitEnumMarshal emits the three methods for an enum, keyed on its
// underlying int32 representation. An unrecognized value on decode is an
// error: enums have no default arm, unlike unions.
func (g *generator) emitEnumMarshal(name string, d *ast.XdrEnum) {
	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", name)
	g.out.Indent()
	g.out.Line("return xdrruntime.AppendI32(nil, int32(v))")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", name)
	g.out.Indent()
	g.out.Line("return xdrruntime.PutI32(dst, off, int32(v))")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", name)
	g.out.Indent()
	g.out.Line("val, err := r.I32()")
	g.out.Line("if err != nil {")
	g.out.Indent()
	g.out.Line("return err")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("switch %s(val) {", name)
	g.out.Indent()
	for _, variant := range d.Variants {
		g.out.Line("case %s%s:", name, goName(variant.Name))
	}
	g.out.Dedent()
	g.out.Line("default:")
	g.out.Indent()
	g.out.Line(`return &xdrruntime.DeserializeError{Reason: "unrecognized %s value"}`, name)
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("*v = %s(val)", name)
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

// emitSelfReferentialList emits a NameList type for a struct flagged
// SelfReferentialOptional (spec.md §4.C): the trailing `S *next;` member was
// stripped by the validator, so a chain of S nodes is represented here as a
// flat []S, encoded on the wire as each element preceded by a `true`
// presence tag and terminated by a single `false` tag — the canonical XDR
// linked-list encoding (see e.g. RFC 1813's entry3/dirlist3).
func (g *generator) emitSelfReferentialList(name string) {
	listName := name + "List"
	g.out.Blank()
	g.out.Line("// %s is the wire representation of a chain of %s nodes:", listName, name)
	g.out.Line("// each element preceded by a `true` tag, the chain closed by a `false` tag.")
	g.out.Line("type %s []%s", listName, name)

	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", listName)
	g.out.Indent()
	g.out.Line("var buf []byte")
	g.out.Line("for _, elem := range v {")
	g.out.Indent()
	g.out.Line("buf = xdrruntime.AppendBool(buf, true)")
	g.out.Line("buf = append(buf, elem.MarshalAlloc()...)")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("buf = xdrruntime.AppendBool(buf, false)")
	g.out.Line("return buf")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", listName)
	g.out.Indent()
	g.out.Line("for _, elem := range v {")
	g.out.Indent()
	g.out.Line("off = xdrruntime.PutBool(dst, off, true)")
	g.out.Line("off = elem.MarshalTo(dst, off)")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("off = xdrruntime.PutBool(dst, off, false)")
	g.out.Line("return off")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", listName)
	g.out.Indent()
	g.out.Line("*v = nil")
	g.out.Line("for {")
	g.out.Indent()
	g.out.Line("more, err := r.Bool()")
	g.out.Line("if err != nil {")
	g.out.Indent()
	g.out.Line("return err")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("if !more {")
	g.out.Indent()
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("var elem %s", name)
	g.out.Line("if err := elem.Unmarshal(r); err != nil {")
	g.out.Indent()
	g.out.Line("return err")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("*v = append(*v, elem)")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Dedent()
	g.out.Line("}")
}
