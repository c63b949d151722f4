// Package fixture loads module descriptions from TOML or YAML files.
//
// A fixture set describes one or more modules. The first is the module to
// weave; the others are the references it resolves against. Method bodies are
// written in a small assembler:
//
//	.local bool flag
//	    ldarg.1
//	    brfalse done
//	    ldarg.0
//	    ldarg value
//	    stfld string App.Model::_name
//	done:
//	    ret
//
// Method operands read "[instance] <return> <type>::<name>(<params>)", field
// operands "<field type> <type>::<name>". Types are written "[Scope]Ns.Name",
// nested types "Ns.Outer/Inner"; "valuetype" marks value types and the usual
// keywords (void, bool, int32, int64, string, object) name core types.
// Protected regions use ".try <start> <end>" followed by ".catch <type>
// <start> <end>", ".finally <start> <end>" or ".fault <start> <end>"; the
// label "end" stands for the end of the body.
package fixture
