package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/onc-rpc/internal/xdr/ast"
)

func TestParseConstAndTypedef(t *testing.T) {
	schema, err := Parse(`
		const MAXLEN = 64;
		typedef opaque fhandle<MAXLEN>;
	`)
	require.NoError(t, err)
	require.Len(t, schema.Definitions, 2)

	c, ok := schema.Definitions[0].(*ast.ConstDefinition)
	require.True(t, ok)
	assert.Equal(t, "MAXLEN", c.Name)
	assert.Equal(t, uint64(64), c.Value.Int)

	td, ok := schema.Definitions[1].(*ast.XdrTypeDef)
	require.True(t, ok)
	assert.Equal(t, "fhandle", td.Name)
	assert.Equal(t, ast.KindArray, td.Decl.Named.Kind.Tag)
}

func TestParseStruct(t *testing.T) {
	schema, err := Parse(`
		struct fattr {
			unsigned int mode;
			hyper size;
			opaque data<1024>;
		};
	`)
	require.NoError(t, err)
	require.Len(t, schema.Definitions, 1)

	s, ok := schema.Definitions[0].(*ast.XdrStruct)
	require.True(t, ok)
	require.Len(t, s.Members, 3)
	assert.Equal(t, "mode", s.Members[0].Named.Name)
	assert.Equal(t, ast.TypeUInt, s.Members[0].Named.Kind.Scalar.Prim)
	assert.Equal(t, "size", s.Members[1].Named.Name)
	assert.Equal(t, ast.TypeHyper, s.Members[1].Named.Kind.Scalar.Prim)
	assert.Equal(t, "data", s.Members[2].Named.Name)
	assert.Equal(t, ast.KindArray, s.Members[2].Named.Kind.Tag)
}

func TestParseEmptyStructRejected(t *testing.T) {
	_, err := Parse(`struct empty { };`)
	assert.Error(t, err)
}

func TestParseEnum(t *testing.T) {
	schema, err := Parse(`
		enum color {
			RED = 0,
			GREEN = 1,
			BLUE = 2
		};
	`)
	require.NoError(t, err)
	e, ok := schema.Definitions[0].(*ast.XdrEnum)
	require.True(t, ok)
	require.Len(t, e.Variants, 3)
	assert.Equal(t, "BLUE", e.Variants[2].Name)
	assert.Equal(t, uint64(2), e.Variants[2].Value.Int)
}

func TestParseBoolUnion(t *testing.T) {
	schema, err := Parse(`
		union maybe_int switch (bool has_value) {
			case TRUE:
				int value;
			default:
				void;
		};
	`)
	require.NoError(t, err)
	u, ok := schema.Definitions[0].(*ast.XdrUnion)
	require.True(t, ok)
	body, ok := u.Body.(ast.XdrUnionBoolBody)
	require.True(t, ok)
	assert.False(t, body.TrueArm.Void)
	assert.Equal(t, "value", body.TrueArm.Named.Name)
}

func TestParseBoolUnionRejectsBadSecondArm(t *testing.T) {
	_, err := Parse(`
		union bad switch (bool flag) {
			case TRUE:
				int value;
			case TRUE:
				void;
		};
	`)
	assert.Error(t, err)
}

func TestParseEnumLikeUnionWithDefault(t *testing.T) {
	schema, err := Parse(`
		enum op_type { READ = 0, WRITE = 1 };

		union op_result switch (op_type kind) {
			case READ:
				opaque data<>;
			case WRITE:
				unsigned int bytes_written;
			default:
				void;
		};
	`)
	require.NoError(t, err)
	u, ok := schema.Definitions[1].(*ast.XdrUnion)
	require.True(t, ok)
	body, ok := u.Body.(ast.XdrUnionEnumBody)
	require.True(t, ok)
	assert.Equal(t, "op_type", body.Discriminant)
	require.Len(t, body.Arms, 2)
	require.NotNil(t, body.DefaultArm)
	assert.True(t, body.DefaultArm.Void)
}

func TestParseStackedCaseArms(t *testing.T) {
	schema, err := Parse(`
		union either switch (unsigned disc) {
			case 0:
			case 1:
				int value;
			default:
				void;
		};
	`)
	require.NoError(t, err)
	u := schema.Definitions[0].(*ast.XdrUnion)
	body := u.Body.(ast.XdrUnionEnumBody)
	require.Len(t, body.Arms, 2)
	assert.Equal(t, uint64(0), body.Arms[0].Value.Int)
	assert.Equal(t, uint64(1), body.Arms[1].Value.Int)
	assert.Equal(t, body.Arms[0].Decl, body.Arms[1].Decl)
}

func TestParseIntDiscriminantRejected(t *testing.T) {
	_, err := Parse(`
		union bad switch (int disc) {
			case 0:
				void;
		};
	`)
	assert.Error(t, err)
}

func TestParseFixedStringRejected(t *testing.T) {
	_, err := Parse(`typedef string name[32];`)
	assert.Error(t, err)
}

func TestParseSelfReferentialOptionalList(t *testing.T) {
	schema, err := Parse(`
		struct node {
			int value;
			node *next;
		};
	`)
	require.NoError(t, err)
	s := schema.Definitions[0].(*ast.XdrStruct)
	require.Len(t, s.Members, 2)
	last := s.Members[1].Named
	require.Equal(t, ast.KindOptional, last.Kind.Tag)
	assert.Equal(t, "node", last.Kind.Optional.Name)
}

func TestParseProgram(t *testing.T) {
	schema, err := Parse(`
		program ECHO_PROG {
			version ECHO_V1 {
				void ECHOPROC_NULL(void) = 0;
				int ECHOPROC_ECHO(int) = 1;
			} = 1;
		} = 7;
	`)
	require.NoError(t, err)
	require.Len(t, schema.Programs, 1)
	prog := schema.Programs[0]
	assert.Equal(t, "ECHO_PROG", prog.Name)
	assert.Equal(t, uint64(7), prog.ID.Int)
	require.Len(t, prog.Versions, 1)
	require.Len(t, prog.Versions[0].Procedures, 2)
	assert.True(t, prog.Versions[0].Procedures[0].RetType.IsVoid)
}

func TestContainsStringFlag(t *testing.T) {
	schema, err := Parse(`typedef string name<255>;`)
	require.NoError(t, err)
	assert.True(t, schema.ContainsString)
}
