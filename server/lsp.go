// Package server exposes a tusl VM to editors over the Language Server
// Protocol.
package server

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/tusl/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "tusl-lsp"

// maxCompletions caps the completion list; the dictionary can be large.
const maxCompletions = 100

var log = commonlog.GetLogger("tusl.lsp")

// LspServer answers editor requests from the dictionary of a VM.
type LspServer struct {
	worker *VMWorker

	mu   sync.Mutex
	docs map[protocol.DocumentUri]string

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a language server backed by v. The server owns v from
// here on; the caller must not use it concurrently.
func NewLSP(v *vm.VM) *LspServer {
	s := &LspServer{
		worker:  NewVMWorker(v),
		docs:    make(map[protocol.DocumentUri]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}
	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves on stdio until the client disconnects.
func (s *LspServer) Run() error {
	defer s.worker.Stop()
	return s.server.RunStdio()
}

// RunTCP serves a single editor over TCP.
func (s *LspServer) RunTCP(address string) error {
	defer s.worker.Stop()
	return s.server.RunTCP(address)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{":", "'", "("},
	}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.store(params.TextDocument.URI, params.TextDocument.Text)
	s.publishDiagnostics(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last event carries the whole document.
	whole, ok := params.ContentChanges[len(params.ContentChanges)-1].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	s.store(params.TextDocument.URI, whole.Text)
	s.publishDiagnostics(ctx, params.TextDocument.URI, whole.Text)
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) store(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[uri]
	return text, ok
}

// ---------------------------------------------------------------------------
// Language features
// ---------------------------------------------------------------------------

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(text, params.Position)
	result, err := s.worker.Call(context.Background(), func(v *vm.VM) any {
		return complete(v, prefix)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	name := extractWord(text, params.Position)
	if name == "" {
		return nil, nil
	}
	result, err := s.worker.Call(context.Background(), func(v *vm.VM) any {
		return hover(v, name)
	})
	if err != nil {
		log.Warningf("hover %q: %s", name, err)
		return nil, nil
	}
	h, _ := result.(*protocol.Hover)
	return h, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	name := extractWord(text, params.Position)
	if name == "" {
		return nil, nil
	}
	if loc, ok := localDefinition(uri, text, name); ok {
		return []protocol.Location{loc}, nil
	}
	result, err := s.worker.Call(context.Background(), func(v *vm.VM) any {
		return definition(v, name)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result, nil
}

// complete lists dictionary words starting with prefix, newest definition
// of each name only, sorted by name.
func complete(v *vm.VM, prefix string) []protocol.CompletionItem {
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	words := v.Words()
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		if w.Kind == vm.KindSpecial || seen[w.Name] || !strings.HasPrefix(w.Name, prefix) {
			continue
		}
		seen[w.Name] = true
		kind := completionKind(w.Kind)
		detail := describe(&w)
		name := w.Name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	if len(items) > maxCompletions {
		items = items[:maxCompletions]
	}
	return items
}

func completionKind(k vm.Kind) protocol.CompletionItemKind {
	switch k {
	case vm.KindConstant:
		return protocol.CompletionItemKindConstant
	case vm.KindClosure:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindFunction
	}
}

// describe is the one-line summary used as completion detail.
func describe(w *vm.Word) string {
	switch w.Kind {
	case vm.KindConstant:
		return fmt.Sprintf("constant %d", w.Datum)
	case vm.KindNative:
		n := w.Native()
		if n.Result {
			return fmt.Sprintf("native (%d -> 1)", n.Arity)
		}
		return fmt.Sprintf("native (%d -> 0)", n.Arity)
	default:
		return w.Kind.String()
	}
}

func hover(v *vm.VM, name string) *protocol.Hover {
	i := v.Lookup(name)
	if i == vm.NotFound {
		return nil
	}
	w, _ := v.WordAt(i)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (#%d)\n\n%s", w.Name, i, describe(&w))
	switch w.Kind {
	case vm.KindSequence:
		fmt.Fprintf(&b, " at data offset %d", w.Datum)
	case vm.KindClosure:
		fmt.Fprintf(&b, ", data at offset %d", w.Datum+4)
	}
	if w.Place.Line > 0 {
		fmt.Fprintf(&b, "\n\nDefined at `%s`", w.Place)
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// definition returns the place a loaded colon-definition was written.
// Host words have no place.
func definition(v *vm.VM, name string) []protocol.Location {
	i := v.Lookup(name)
	if i == vm.NotFound {
		return nil
	}
	w, _ := v.WordAt(i)
	if w.Place.Line == 0 || w.Place.Filename == "" {
		return nil
	}
	uri := protocol.DocumentUri((&url.URL{Scheme: "file", Path: w.Place.Filename}).String())
	return []protocol.Location{{URI: uri, Range: pointRange(w.Place, len(w.Name))}}
}

// localDefinition finds ":name" in text, so words defined in an unsaved
// document resolve before the VM has seen them.
func localDefinition(uri protocol.DocumentUri, text, name string) (protocol.Location, bool) {
	for n, line := range strings.Split(text, "\n") {
		for col := 0; col < len(line); col++ {
			if line[col] != ':' {
				continue
			}
			start := col + 1
			for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
				start++
			}
			end := start
			for end < len(line) && !isDelimiter(line[end]) {
				end++
			}
			if line[start:end] == name {
				return protocol.Location{
					URI: uri,
					Range: protocol.Range{
						Start: protocol.Position{Line: uint32(n), Character: uint32(start)},
						End:   protocol.Position{Line: uint32(n), Character: uint32(end)},
					},
				}, true
			}
		}
	}
	return protocol.Location{}, false
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Call(context.Background(), func(v *vm.VM) any {
		return diagnose(v, uri, text)
	})
	if err != nil {
		log.Warningf("diagnostics for %s: %s", uri, err)
		return
	}
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: result.([]protocol.Diagnostic),
	})
}

func diagnose(v *vm.VM, uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	lines := strings.Split(text, "\n")
	diagnostics := []protocol.Diagnostic{}
	for _, problem := range v.Check(text, uriPath(uri)) {
		severity := protocol.DiagnosticSeverityError
		if problem.Kind == vm.ErrUndefinedWord {
			severity = protocol.DiagnosticSeverityWarning
		}
		source := lspName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    pointRange(problem.Place, tokenLength(lines, problem.Place)),
			Severity: &severity,
			Source:   &source,
			Message:  problem.Message,
		})
	}
	return diagnostics
}

// ---------------------------------------------------------------------------
// Text helpers
// ---------------------------------------------------------------------------

// isDelimiter reports whether c ends a plain tusl token.
func isDelimiter(c byte) bool {
	return strings.IndexByte(" \t\r\n\"`\\':()$", c) >= 0
}

// extractPrefix returns the part of the token before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && !isDelimiter(line[start-1]) {
		start--
	}
	return line[start:col]
}

// extractWord returns the whole token under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}
	start, end := col, col
	for start > 0 && !isDelimiter(line[start-1]) {
		start--
	}
	for end < len(line) && !isDelimiter(line[end]) {
		end++
	}
	return line[start:end]
}

func lineAt(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line, col, true
}

// pointRange converts a VM place, which is one-based and points at the
// first character of a token, to an editor range of the given width.
func pointRange(p vm.Place, width int) protocol.Range {
	line := max(p.Line-1, 0)
	col := max(p.Column-1, 0)
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(col + width)},
	}
}

// tokenLength measures the token starting at p in lines.
func tokenLength(lines []string, p vm.Place) int {
	if p.Line < 1 || p.Line > len(lines) || p.Column < 1 {
		return 0
	}
	line := lines[p.Line-1]
	start := p.Column - 1
	if start >= len(line) {
		return 0
	}
	end := start + 1
	for end < len(line) && !isDelimiter(line[end]) {
		end++
	}
	return end - start
}

// uriPath returns the file path of a file: URI, or the URI unchanged.
func uriPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return u.Path
}

func boolPtr(b bool) *bool {
	return &b
}
