package ast

import "strings"

// capability is a canonical construct the analyzer knows how to detect.
type capability int

const (
	capNone capability = iota
	// capSchemaBase marks validation-base schema classes (pydantic BaseModel).
	capSchemaBase
	// capTypedMapping marks typed-mapping declarations (TypedDict).
	capTypedMapping
	// capGraphBuilder marks graph-builder constructors (StateGraph).
	capGraphBuilder
)

// symbolTable maps locally-bound names to canonical capabilities.
//
// Audited code may import any detectable construct under an arbitrary
// local name or via a qualified path; detection follows the binding, not
// the surface token. The table is seeded with the canonical default names
// and extended for every import that binds one of them to a local alias.
// Scope is per file.
type symbolTable struct {
	caps map[string]capability
}

func newSymbolTable() *symbolTable {
	return &symbolTable{caps: map[string]capability{
		"BaseModel":  capSchemaBase,
		"TypedDict":  capTypedMapping,
		"StateGraph": capGraphBuilder,
	}}
}

// bindImport registers a local alias for a canonical name imported from
// the given module path.
//
// BaseModel only carries schema-base capability when it comes from a
// pydantic module; TypedDict and StateGraph are accepted from any module
// (typing, typing_extensions, langgraph.graph, vendored copies).
func (t *symbolTable) bindImport(module, name, alias string) {
	local := alias
	if local == "" {
		local = name
	}
	switch name {
	case "BaseModel":
		if strings.HasPrefix(module, "pydantic") {
			t.caps[local] = capSchemaBase
		} else {
			// An import from a non-pydantic module rebinds the name to
			// an untrusted class, shadowing the seeded default.
			t.caps[local] = capNone
		}
	case "TypedDict":
		t.caps[local] = capTypedMapping
	case "StateGraph":
		t.caps[local] = capGraphBuilder
	}
}

// resolve maps a bare local name to its capability.
func (t *symbolTable) resolve(name string) capability {
	return t.caps[name]
}

// resolveQualified maps the terminal attribute of a qualified reference
// (pydantic.BaseModel, lg.StateGraph) to its capability. Qualified paths
// keep their canonical terminal name regardless of module aliasing, so
// resolution by terminal attribute is alias-resilient.
func resolveQualified(attr string) capability {
	switch attr {
	case "BaseModel":
		return capSchemaBase
	case "TypedDict":
		return capTypedMapping
	case "StateGraph":
		return capGraphBuilder
	default:
		return capNone
	}
}

// isSchemaCapability reports whether a capability flags typed state.
func isSchemaCapability(c capability) bool {
	return c == capSchemaBase || c == capTypedMapping
}
