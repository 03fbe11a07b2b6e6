// Union emission: a discriminated union becomes a Go struct with the
// discriminant field plus one pointer field per distinct arm payload,
// exactly one of which is non-nil for any given discriminant value — the
// common "oneof" shape for hand-written (non-reflection) Go codecs.
package codegen

import (
	"fmt"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
)

func (g *generator) emitUnion(d *ast.XdrUnion) error {
	switch body := d.Body.(type) {
	case ast.XdrUnionBoolBody:
		g.emitBoolUnion(d.Name, body)
		return nil
	case ast.XdrUnionEnumBody:
		return g.emitEnumUnion(d.Name, body)
	default:
		return fmt.Errorf("union %s: unhandled body type %T", d.Name, body)
	}
}

// emitBoolUnion emits a union switched on `bool`: a single flag field plus
// a single optional payload field for the true arm (the false arm is
// always void).
func (g *generator) emitBoolUnion(name string, body ast.XdrUnionBoolBody) {
	goNameStruct := goName(name)
	fieldName := armFieldName(body.TrueArm)
	fieldType, _ := g.declGoType(body.TrueArm)

	g.out.Line("type %s struct {", goNameStruct)
	g.out.Indent()
	g.out.Line("HasValue bool")
	if !body.TrueArm.Void {
		g.out.Line("%s *%s", fieldName, fieldType)
	}
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", goNameStruct)
	g.out.Indent()
	g.out.Line("var buf []byte")
	g.out.Line("buf = xdrruntime.AppendBool(buf, v.HasValue)")
	if !body.TrueArm.Void {
		g.out.Line("if v.HasValue {")
		g.out.Indent()
		g.emitAllocDecl(&g.out, "(*v."+fieldName+")", derefForAlloc(body.TrueArm))
		g.out.Dedent()
		g.out.Line("}")
	}
	g.out.Line("return buf")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", goNameStruct)
	g.out.Indent()
	g.out.Line("off = xdrruntime.PutBool(dst, off, v.HasValue)")
	if !body.TrueArm.Void {
		g.out.Line("if v.HasValue {")
		g.out.Indent()
		g.emitNoallocDecl(&g.out, "(*v."+fieldName+")", derefForAlloc(body.TrueArm))
		g.out.Dedent()
		g.out.Line("}")
	}
	g.out.Line("return off")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", goNameStruct)
	g.out.Indent()
	g.out.Line("hasValue, err := r.Bool()")
	g.out.Line("if err != nil {")
	g.out.Indent()
	g.out.Line("return err")
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("v.HasValue = hasValue")
	if !body.TrueArm.Void {
		g.out.Line("if hasValue {")
		g.out.Indent()
		g.out.Line("v.%s = new(%s)", fieldName, fieldType)
		g.emitDeserializeDecl(&g.out, "(*v."+fieldName+")", derefForAlloc(body.TrueArm))
		g.out.Dedent()
		g.out.Line("} else {")
		g.out.Indent()
		g.out.Line("v.%s = nil", fieldName)
		g.out.Dedent()
		g.out.Line("}")
	}
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

// derefForAlloc turns a non-optional, non-array Declaration into the
// Declaration the field's pointed-to value actually carries, for emission
// purposes: the struct field is `*T` (one level of union-arm optionality
// layered on top of the arm's own declared shape), but the emitted
// marshal/unmarshal code for the arm's payload itself must walk T's own
// shape, which is exactly what the original Declaration already describes.
// This identity wrapper exists so call sites read as "the value behind the
// pointer", matching how the bool/enum-union emitters use it.
func derefForAlloc(d ast.Declaration) ast.Declaration { return d }

// emitEnumUnion emits a union switched on an enum, `unsigned`, or
// `unsigned int`: a discriminant field of the resolved Go type plus one
// pointer field per distinct arm payload (shared by stacked case labels).
func (g *generator) emitEnumUnion(name string, body ast.XdrUnionEnumBody) error {
	goNameStruct := goName(name)
	discType := "uint32"
	if body.Discriminant != "" {
		discType = goName(body.Discriminant)
	}

	fields, err := g.unionArmFields(body)
	if err != nil {
		return err
	}

	g.out.Line("type %s struct {", goNameStruct)
	g.out.Indent()
	g.out.Line("Discriminant %s", discType)
	for _, f := range fields {
		g.out.Line("%s *%s", f.fieldName, f.goType)
	}
	g.out.Dedent()
	g.out.Line("}")

	g.emitEnumUnionMarshal(goNameStruct, discType, body, fields)
	g.emitEnumUnionUnmarshal(goNameStruct, discType, body, fields)
	return nil
}

type unionField struct {
	fieldName string
	goType    string
	decl      ast.Declaration
}

// unionArmFields computes the distinct payload fields a union's arms need,
// in first-seen order, erroring if two arms with different declared shapes
// collide on the same Go field name.
func (g *generator) unionArmFields(body ast.XdrUnionEnumBody) ([]unionField, error) {
	var fields []unionField
	seen := map[string]ast.Declaration{}
	add := func(d ast.Declaration) error {
		fname := armFieldName(d)
		if prev, ok := seen[fname]; ok {
			if !declsEqualEnough(prev, d) {
				return fmt.Errorf("arm field %s has conflicting shapes across cases", fname)
			}
			return nil
		}
		seen[fname] = d
		goType, _ := g.declGoType(d)
		fields = append(fields, unionField{fieldName: fname, goType: goType, decl: d})
		return nil
	}
	for _, arm := range body.Arms {
		if arm.Decl.Void {
			continue
		}
		if err := add(arm.Decl); err != nil {
			return nil, err
		}
	}
	if body.DefaultArm != nil && !body.DefaultArm.Void {
		if err := add(*body.DefaultArm); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// declsEqualEnough is a shallow structural comparison sufficient to detect
// two arms that reused the same member name with incompatible shapes.
func declsEqualEnough(a, b ast.Declaration) bool {
	if a.Void != b.Void {
		return false
	}
	if a.Void {
		return true
	}
	return a.Named.Kind.Tag == b.Named.Kind.Tag
}

func (g *generator) emitEnumUnionMarshal(structName, discType string, body ast.XdrUnionEnumBody, fields []unionField) {
	g.out.Blank()
	g.out.Line("func (v %s) MarshalAlloc() []byte {", structName)
	g.out.Indent()
	g.out.Line("var buf []byte")
	g.emitAllocScalar(&g.out, "v.Discriminant", discScalarType(discType, body.Discriminant))
	g.out.Line("switch v.Discriminant {")
	g.out.Indent()
	for _, arm := range body.Arms {
		g.out.Line("case %s:", g.unionCaseLabel(arm.Value, discType))
		g.out.Indent()
		g.emitArmPayloadAlloc(arm.Decl)
		g.out.Dedent()
	}
	if body.DefaultArm != nil {
		g.out.Line("default:")
		g.out.Indent()
		g.emitArmPayloadAlloc(*body.DefaultArm)
		g.out.Dedent()
	}
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("return buf")
	g.out.Dedent()
	g.out.Line("}")

	g.out.Blank()
	g.out.Line("func (v %s) MarshalTo(dst []byte, off int) int {", structName)
	g.out.Indent()
	g.emitNoallocScalar(&g.out, "v.Discriminant", discScalarType(discType, body.Discriminant))
	g.out.Line("switch v.Discriminant {")
	g.out.Indent()
	for _, arm := range body.Arms {
		g.out.Line("case %s:", g.unionCaseLabel(arm.Value, discType))
		g.out.Indent()
		g.emitArmPayloadNoalloc(arm.Decl)
		g.out.Dedent()
	}
	if body.DefaultArm != nil {
		g.out.Line("default:")
		g.out.Indent()
		g.emitArmPayloadNoalloc(*body.DefaultArm)
		g.out.Dedent()
	}
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("return off")
	g.out.Dedent()
	g.out.Line("}")
}

func (g *generator) emitArmPayloadAlloc(d ast.Declaration) {
	if d.Void {
		return
	}
	fname := "v." + armFieldName(d)
	g.out.Line("if %s != nil {", fname)
	g.out.Indent()
	g.emitAllocDecl(&g.out, "(*"+fname+")", d)
	g.out.Dedent()
	g.out.Line("}")
}

func (g *generator) emitArmPayloadNoalloc(d ast.Declaration) {
	if d.Void {
		return
	}
	fname := "v." + armFieldName(d)
	g.out.Line("if %s != nil {", fname)
	g.out.Indent()
	g.emitNoallocDecl(&g.out, "(*"+fname+")", d)
	g.out.Dedent()
	g.out.Line("}")
}

func (g *generator) emitEnumUnionUnmarshal(structName, discType string, body ast.XdrUnionEnumBody, fields []unionField) {
	g.out.Blank()
	g.out.Line("func (v *%s) Unmarshal(r *xdrruntime.Reader) error {", structName)
	g.out.Indent()
	for _, f := range fields {
		g.out.Line("v.%s = nil", f.fieldName)
	}
	g.emitDeserializeScalar(&g.out, "v.Discriminant", discScalarType(discType, body.Discriminant))
	g.out.Line("switch v.Discriminant {")
	g.out.Indent()
	for _, arm := range body.Arms {
		g.out.Line("case %s:", g.unionCaseLabel(arm.Value, discType))
		g.out.Indent()
		g.emitArmPayloadUnmarshal(arm.Decl)
		g.out.Dedent()
	}
	if body.DefaultArm != nil {
		g.out.Line("default:")
		g.out.Indent()
		g.emitArmPayloadUnmarshal(*body.DefaultArm)
		g.out.Dedent()
	} else {
		g.out.Line("default:")
		g.out.Indent()
		g.out.Line(`return &xdrruntime.DeserializeError{Reason: "unrecognized union discriminant"}`)
		g.out.Dedent()
	}
	g.out.Dedent()
	g.out.Line("}")
	g.out.Line("return nil")
	g.out.Dedent()
	g.out.Line("}")
}

func (g *generator) emitArmPayloadUnmarshal(d ast.Declaration) {
	if d.Void {
		return
	}
	fname := "v." + armFieldName(d)
	goType, _ := g.declGoType(d)
	g.out.Line("%s = new(%s)", fname, goType)
	g.emitDeserializeDecl(&g.out, "(*"+fname+")", d)
}

// unionCaseLabel renders a case-arm Value as a Go expression of discType: a
// literal integer, a bool literal, or (for enum discriminants) the
// generated constant name.
func (g *generator) unionCaseLabel(v ast.Value, discType string) string {
	if !v.IsName {
		if discType == "bool" {
			if v.Int != 0 {
				return "true"
			}
			return "false"
		}
		return fmt.Sprintf("%d", v.Int)
	}
	return discType + goName(v.Name)
}

// discScalarType returns the XdrType used to read/write the discriminant:
// the named enum's own type when discriminant names one, else a bare
// unsigned int.
func discScalarType(discType, discriminant string) ast.XdrType {
	if discriminant == "" {
		return ast.PrimitiveType(ast.TypeUInt)
	}
	return ast.NamedType(discriminant)
}
