// Package symtab resolves Definition names referenced throughout a Schema.
//
// Ported from xdr_codegen/src/symbol_table.rs: every `ast.XdrType` with
// Prim == TypeName is an unresolved reference that must eventually hit
// exactly one entry here, or validation fails with UndefinedName.
package symtab

import (
	"fmt"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
)

// SymbolTable maps a definition's name to the Definition itself.
type SymbolTable struct {
	byName map[string]ast.Definition
	// order preserves source order of schema.Definitions, skipping nothing;
	// the emitter walks this to produce deterministic output.
	order []string
}

// Build indexes every top-level Definition in schema by name.
func Build(schema *ast.Schema) *SymbolTable {
	t := &SymbolTable{byName: make(map[string]ast.Definition, len(schema.Definitions))}
	for _, def := range schema.Definitions {
		name := def.DefinitionName()
		t.byName[name] = def
		t.order = append(t.order, name)
	}
	return t
}

// Lookup resolves name to its Definition.
func (t *SymbolTable) Lookup(name string) (ast.Definition, error) {
	def, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("undefined name: %s", name)
	}
	return def, nil
}

// DefinitionOrder returns definition names in source order.
func (t *SymbolTable) DefinitionOrder() []string {
	return t.order
}
