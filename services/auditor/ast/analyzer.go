package ast

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultMaxFileSize is the largest source file the analyzer will parse.
const DefaultMaxFileSize = 10 * 1024 * 1024

// edgeMethods is the fixed edge-registration method set. A method call on
// a tracked builder variable with one of these names records a directed
// edge from its first two literal arguments.
var edgeMethods = map[string]bool{
	"add_edge":              true,
	"add_conditional_edges": true,
}

// skipDirs are directory names excluded from the tree walk.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"vendor":       true,
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithMaxFileSize caps the per-file size the analyzer will parse.
func WithMaxFileSize(bytes int64) AnalyzerOption {
	return func(a *Analyzer) {
		if bytes > 0 {
			a.maxFileSize = bytes
		}
	}
}

// Analyzer inspects Python source trees for graph-architecture patterns.
//
// Each AnalyzeTree call creates its own tree-sitter parser instances, so
// an Analyzer is safe for concurrent use.
type Analyzer struct {
	maxFileSize int64
}

// NewAnalyzer creates an Analyzer with the given options.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeTree scans every Python file under root and aggregates findings.
//
// A file that fails to read or parse is recorded in Findings.ParseErrors
// and the scan proceeds; the whole-tree scan never aborts on a bad file.
// An empty tree is a valid result with all flags false, not an error.
func (a *Analyzer) AnalyzeTree(ctx context.Context, root string) (*Findings, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze canceled before start: %w", err)
	}

	findings := &Findings{
		FilesAnalyzed: make([]string, 0),
		ParseErrors:   make(map[string]string),
		Edges:         make([]Edge, 0),
	}

	for _, rel := range []string{"src/state.py", "src/graph.py"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err == nil {
			findings.StateFilesFound = true
			break
		}
	}
	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		findings.SrcDirFound = true
	}
	if info, err := os.Stat(filepath.Join(root, "tests")); err == nil && info.IsDir() {
		findings.TestsDirFound = true
	}
	for _, name := range []string{"README.md", "README.rst", "README"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			findings.ReadmeFound = true
			break
		}
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".py") {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if err := a.analyzeFile(ctx, path, rel, findings); err != nil {
			findings.ParseErrors[rel] = err.Error()
			return nil
		}
		findings.FilesAnalyzed = append(findings.FilesAnalyzed, rel)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	findings.computeTopology()

	slog.Debug("structural forensics complete",
		slog.Int("files_analyzed", len(findings.FilesAnalyzed)),
		slog.Int("parse_errors", len(findings.ParseErrors)),
		slog.Int("edges", len(findings.Edges)),
		slog.Bool("typed_state", findings.TypedStateDetected),
		slog.Bool("graph_builder", findings.GraphBuilderDetected))

	return findings, nil
}

// analyzeFile parses one file and merges its detections into findings.
func (a *Analyzer) analyzeFile(ctx context.Context, path, rel string, findings *Findings) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %v", err)
	}
	if int64(len(content)) > a.maxFileSize {
		return fmt.Errorf("file exceeds %d byte limit", a.maxFileSize)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("content is not valid UTF-8")
	}

	// New parser instance per file for thread safety.
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("parser returned no syntax tree")
	}
	if root.HasError() {
		// Findings must reflect only cleanly parsed files.
		return fmt.Errorf("syntax error")
	}

	scan := &fileScanner{
		src:         content,
		syms:        newSymbolTable(),
		builderVars: make(map[string]bool),
		findings:    findings,
	}
	scan.bindImports(root)
	scan.walk(root)

	slog.Debug("analyzed file", slog.String("file", rel))
	return nil
}

// fileScanner holds per-file detection state: the symbol resolution table
// and the tracked builder variables, both scoped to a single file.
type fileScanner struct {
	src         []byte
	syms        *symbolTable
	builderVars map[string]bool
	findings    *Findings
}

func (s *fileScanner) text(n *sitter.Node) string {
	return string(s.src[n.StartByte():n.EndByte()])
}

// bindImports is the pre-pass that extends the symbol table from import
// statements anywhere in the file, including imports nested in functions.
func (s *fileScanner) bindImports(n *sitter.Node) {
	if n.Type() == "import_from_statement" {
		s.bindFromImport(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		s.bindImports(n.Child(i))
	}
}

// bindFromImport handles 'from module import name [as alias], ...'.
func (s *fileScanner) bindFromImport(n *sitter.Node) {
	var module string
	sawImport := false

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			module = s.text(child)
		case "dotted_name":
			if !sawImport {
				module = s.text(child)
			} else {
				s.syms.bindImport(module, s.text(child), "")
			}
		case "identifier":
			if sawImport {
				s.syms.bindImport(module, s.text(child), "")
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					name = s.text(gc)
				case "identifier":
					alias = s.text(gc)
				}
			}
			s.syms.bindImport(module, name, alias)
		}
	}
}

// walk visits every node in document order, so builder variables are
// tracked before any edge registrations that follow them in the file.
func (s *fileScanner) walk(n *sitter.Node) {
	switch n.Type() {
	case "class_definition":
		s.scanClass(n)
	case "assignment":
		s.scanAssignment(n)
	case "call":
		s.scanCall(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		s.walk(n.Child(i))
	}
}

// scanClass flags typed state when a base class resolves to a schema
// capability, through either a local alias or a qualified path.
func (s *fileScanner) scanClass(n *sitter.Node) {
	bases := n.ChildByFieldName("superclasses")
	if bases == nil {
		return
	}

	schema := false
	for i := 0; i < int(bases.ChildCount()); i++ {
		base := bases.Child(i)
		switch base.Type() {
		case "identifier":
			if isSchemaCapability(s.syms.resolve(s.text(base))) {
				schema = true
			}
		case "attribute":
			if attr := base.ChildByFieldName("attribute"); attr != nil {
				if isSchemaCapability(resolveQualified(s.text(attr))) {
					schema = true
				}
			}
		case "subscript":
			// Generic bases like BaseModel[T]; resolve the subscripted value.
			if value := base.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
				if isSchemaCapability(s.syms.resolve(s.text(value))) {
					schema = true
				}
			}
		}
	}
	if !schema {
		return
	}

	s.findings.TypedStateDetected = true
	s.scanReducerHints(n.ChildByFieldName("body"))
}

// scanReducerHints looks for Annotated field declarations on a schema
// class body, the static signature of state-merge reducers.
func (s *fileScanner) scanReducerHints(body *sitter.Node) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Type() != "expression_statement" || stmt.ChildCount() == 0 {
			continue
		}
		assign := stmt.Child(0)
		if assign.Type() != "assignment" {
			continue
		}
		if typeNode := assign.ChildByFieldName("type"); typeNode != nil {
			if strings.Contains(s.text(typeNode), "Annotated") {
				s.findings.ReducerHints = true
			}
		}
	}
}

// scanAssignment detects graph-builder instantiation and tracks every
// assignment target as a builder variable for the rest of the file.
func (s *fileScanner) scanAssignment(n *sitter.Node) {
	right := n.ChildByFieldName("right")
	if right == nil || right.Type() != "call" {
		return
	}
	fn := right.ChildByFieldName("function")
	if fn == nil {
		return
	}

	resolved := capNone
	switch fn.Type() {
	case "identifier":
		resolved = s.syms.resolve(s.text(fn))
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			resolved = resolveQualified(s.text(attr))
		}
	}
	if resolved != capGraphBuilder {
		return
	}

	s.findings.GraphBuilderDetected = true

	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	switch left.Type() {
	case "identifier":
		s.builderVars[s.text(left)] = true
	case "pattern_list", "tuple_pattern":
		for i := 0; i < int(left.ChildCount()); i++ {
			target := left.Child(i)
			if target.Type() == "identifier" {
				s.builderVars[s.text(target)] = true
			}
		}
	}
}

// shellModules maps module receivers to the attribute calls considered
// dangerous subprocess invocations.
var shellModules = map[string]map[string]bool{
	"os":         {"system": true, "popen": true},
	"subprocess": {"run": true, "call": true, "Popen": true, "check_output": true, "check_call": true},
}

// scanCall records a directed edge for edge-registration calls on tracked
// builder variables, and flags dangerous subprocess invocations. Only
// string literal arguments are statically determinable edge endpoints;
// computed arguments are ignored.
func (s *fileScanner) scanCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return
	}
	attr := fn.ChildByFieldName("attribute")
	if attr == nil {
		return
	}

	if obj := fn.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
		if calls, ok := shellModules[s.text(obj)]; ok && calls[s.text(attr)] {
			s.findings.addDangerousCall(s.text(obj) + "." + s.text(attr))
		}
	}

	if !edgeMethods[s.text(attr)] {
		return
	}
	receiver := fn.ChildByFieldName("object")
	if receiver == nil || receiver.Type() != "identifier" || !s.builderVars[s.text(receiver)] {
		return
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	var literals []string
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(i)
		if arg.Type() == "string" {
			literals = append(literals, stringLiteral(s.text(arg)))
		}
	}
	if len(literals) >= 2 {
		s.findings.Edges = append(s.findings.Edges, Edge{From: literals[0], To: literals[1]})
	}
}

// stringLiteral strips quotes and prefix letters (f, r, b, u) from a
// Python string literal.
func stringLiteral(raw string) string {
	if idx := strings.IndexAny(raw, `"'`); idx > 0 {
		raw = raw[idx:]
	}
	return strings.Trim(raw, `"'`)
}
