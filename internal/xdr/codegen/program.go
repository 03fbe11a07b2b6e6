// Program/version/procedure emission: RFC 5531 program, version, and
// procedure numbers are nested under a per-program Procedures namespace
// (a struct of structs, Go having no nested const scope of its own) rather
// than flat top-level constants, and each version also gets a small
// server-side interface naming each procedure's Go signature — the Go
// analogue of an rpcgen-generated server prototype header. internal/rpcserver
// dispatches through its own Procedure table and does not use it.
package codegen

import "github.com/marmos91/onc-rpc/internal/xdr/ast"

func (g *generator) emitProgram(p ast.Program) {
	progName := goName(p.Name)
	procsType := progName + "Procedures"

	for _, ver := range p.Versions {
		g.emitProgramVersionType(progName, ver)
		g.out.Blank()
	}

	g.out.Line("// %s is %s's program, version, and procedure numbers, nested by", procsType, progName)
	g.out.Line("// version so a caller writes %s.<VERSION>.<PROCEDURE> rather than a flat constant.", procsType)
	g.out.Line("type %s struct {", procsType)
	g.out.Indent()
	g.out.Line("Prog uint32")
	for _, ver := range p.Versions {
		g.out.Line("%s %s", goName(ver.Name), versionProceduresType(progName, ver))
	}
	g.out.Dedent()
	g.out.Line("}")
	g.out.Blank()

	g.out.Line("var %s = %s{", procsType, procsType)
	g.out.Indent()
	g.out.Line("Prog: %s,", g.valueLiteral(p.ID))
	for _, ver := range p.Versions {
		g.out.Line("%s: %s{", goName(ver.Name), versionProceduresType(progName, ver))
		g.out.Indent()
		g.out.Line("Version: %s,", g.valueLiteral(ver.ID))
		for _, proc := range ver.Procedures {
			g.out.Line("%s: %s,", goName(proc.Name), g.valueLiteral(proc.ID))
		}
		g.out.Dedent()
		g.out.Line("},")
	}
	g.out.Dedent()
	g.out.Line("}")

	for _, ver := range p.Versions {
		g.out.Blank()
		g.emitProgramVersionServer(progName, ver)
	}
}

// versionProceduresType names the struct holding one version's Version
// field and its procedure numbers, e.g. ECHO_PROGECHO_V1Procedures.
func versionProceduresType(progName string, ver ast.ProgramVersion) string {
	return progName + goName(ver.Name) + "Procedures"
}

func (g *generator) emitProgramVersionType(progName string, ver ast.ProgramVersion) {
	g.out.Line("type %s struct {", versionProceduresType(progName, ver))
	g.out.Indent()
	g.out.Line("Version uint32")
	for _, proc := range ver.Procedures {
		g.out.Line("%s uint32", goName(proc.Name))
	}
	g.out.Dedent()
	g.out.Line("}")
}

func (g *generator) emitProgramVersionServer(progName string, ver ast.ProgramVersion) {
	verConst := goName(ver.Name)
	ifaceName := verConst + "Server"
	g.out.Line("// %s is implemented by the handler bound to %s, version %s.", ifaceName, progName, verConst)
	g.out.Line("type %s interface {", ifaceName)
	g.out.Indent()
	for _, proc := range ver.Procedures {
		g.out.Line("%s", g.procedureSignature(proc))
	}
	g.out.Dedent()
	g.out.Line("}")
}

// procedureSignature renders one procedure as a Go interface method: a
// void argument is dropped from the parameter list, a void return leaves
// only the trailing error.
func (g *generator) procedureSignature(proc ast.Procedure) string {
	name := goName(proc.Name)
	if proc.ArgType.IsVoid {
		if proc.RetType.IsVoid {
			return name + "() error"
		}
		return name + "() (" + scalarGoType(proc.RetType) + ", error)"
	}
	if proc.RetType.IsVoid {
		return name + "(arg " + scalarGoType(proc.ArgType) + ") error"
	}
	return name + "(arg " + scalarGoType(proc.ArgType) + ") (" + scalarGoType(proc.RetType) + ", error)"
}
