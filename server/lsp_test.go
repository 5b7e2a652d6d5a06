package server

import (
	"context"
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/tusl/vm"
)

// ---------------------------------------------------------------------------
// Text extraction
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	cases := []struct {
		text string
		line uint32
		col  uint32
		want string
	}{
		{"1 2 sw", 0, 6, "sw"},
		{"dup", 0, 3, "dup"},
		{"", 0, 0, ""},
		{"first\n  2var", 1, 6, "2var"},
		{":sq", 0, 3, "sq"},
		{"(if)", 0, 3, "if"},
		{"hello", 0, 0, ""},
		{"one line", 5, 0, ""},
		{"abc", 0, 99, "abc"},
	}
	for _, c := range cases {
		got := extractPrefix(c.text, protocol.Position{Line: c.line, Character: c.col})
		if got != c.want {
			t.Errorf("extractPrefix(%q, %d:%d) = %q, want %q", c.text, c.line, c.col, got, c.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	cases := []struct {
		text string
		col  uint32
		want string
	}{
		{"1 2 swap drop", 5, "swap"},
		{"1 2 swap drop", 4, "swap"},
		{"1 2 swap drop", 8, "swap"},
		{"'<<branch>>(#)", 3, "<<branch>>"},
		{":square z- z z * ;", 3, "square"},
		{"a  b", 2, ""},
	}
	for _, c := range cases {
		got := extractWord(c.text, protocol.Position{Character: c.col})
		if got != c.want {
			t.Errorf("extractWord(%q, %d) = %q, want %q", c.text, c.col, got, c.want)
		}
	}
}

func TestTokenLength(t *testing.T) {
	lines := []string{"1 2 frob", "\"abc"}
	if n := tokenLength(lines, vm.Place{Line: 1, Column: 5}); n != 4 {
		t.Errorf("tokenLength = %d, want 4", n)
	}
	if n := tokenLength(lines, vm.Place{Line: 3, Column: 1}); n != 0 {
		t.Errorf("tokenLength past end = %d, want 0", n)
	}
}

func TestURIPath(t *testing.T) {
	if got := uriPath("file:///home/me/x.tsl"); got != "/home/me/x.tsl" {
		t.Errorf("uriPath = %q", got)
	}
	if got := uriPath("untitled:1"); got != "untitled:1" {
		t.Errorf("uriPath = %q", got)
	}
}

// ---------------------------------------------------------------------------
// VM-backed features
// ---------------------------------------------------------------------------

func call(t *testing.T, fn func(*vm.VM) any) any {
	t.Helper()
	v, err := testWorker.Call(context.Background(), fn)
	if err != nil {
		t.Fatalf("worker: %v", err)
	}
	return v
}

func labels(items []protocol.CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestComplete(t *testing.T) {
	items := call(t, func(v *vm.VM) any { return complete(v, "2") }).([]protocol.CompletionItem)
	got := labels(items)
	for _, want := range []string{"2!", "2*", "2+", "2-", "2/", "2@", "2variable"} {
		found := false
		for _, l := range got {
			if l == want {
				found = true
			}
		}
		if !found {
			t.Errorf("completion for %q missing %q (got %v)", "2", want, got)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("completions not sorted: %v", got)
		}
	}
}

func TestCompleteSkipsSpecialWords(t *testing.T) {
	for _, prefix := range []string{"<<l", "<<b", "<<w", ";w", "wxyz"} {
		items := call(t, func(v *vm.VM) any { return complete(v, prefix) }).([]protocol.CompletionItem)
		if len(items) != 0 {
			t.Errorf("%q: special words offered: %v", prefix, labels(items))
		}
	}

	// The shift primitive shares the "<<" prefix and is an ordinary word.
	items := call(t, func(v *vm.VM) any { return complete(v, "<<") }).([]protocol.CompletionItem)
	if got := labels(items); len(got) != 1 || got[0] != "<<" {
		t.Errorf("complete(<<) = %v, want [<<]", got)
	}

	special := call(t, func(v *vm.VM) any {
		names := make(map[string]bool)
		for _, w := range v.Words() {
			if w.Kind == vm.KindSpecial {
				names[w.Name] = true
			}
		}
		return names
	}).(map[string]bool)
	all := call(t, func(v *vm.VM) any { return complete(v, "") }).([]protocol.CompletionItem)
	for _, it := range all {
		if special[it.Label] {
			t.Errorf("special word %q offered", it.Label)
		}
	}
}

func TestCompleteDetail(t *testing.T) {
	items := call(t, func(v *vm.VM) any { return complete(v, "square") }).([]protocol.CompletionItem)
	if len(items) != 1 {
		t.Fatalf("got %v, want [square]", labels(items))
	}
	if *items[0].Detail != "sequence" {
		t.Errorf("detail = %q, want sequence", *items[0].Detail)
	}
	if *items[0].Kind != protocol.CompletionItemKindFunction {
		t.Errorf("kind = %v", *items[0].Kind)
	}

	items = call(t, func(v *vm.VM) any { return complete(v, "true") }).([]protocol.CompletionItem)
	if len(items) != 1 || *items[0].Detail != "constant -1" {
		t.Errorf("true completion = %v", labels(items))
	}
}

func TestCompleteLimit(t *testing.T) {
	items := call(t, func(v *vm.VM) any { return complete(v, "") }).([]protocol.CompletionItem)
	if len(items) == 0 || len(items) > maxCompletions {
		t.Errorf("got %d items, want 1..%d", len(items), maxCompletions)
	}
}

func TestHover(t *testing.T) {
	h := call(t, func(v *vm.VM) any { return hover(v, "square") }).(*protocol.Hover)
	if h == nil {
		t.Fatal("no hover for square")
	}
	text := h.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{"**square**", "sequence at data offset", "/work/square.tsl:2.2"} {
		if !strings.Contains(text, want) {
			t.Errorf("hover %q missing %q", text, want)
		}
	}
}

func TestHoverNative(t *testing.T) {
	v := vm.NewVM()
	if _, err := v.InstallNative("plus3", vm.Int3(func(a, b, c vm.Cell) vm.Cell { return a + b + c })); err != nil {
		t.Fatal(err)
	}
	h := hover(v, "plus3")
	if h == nil {
		t.Fatal("no hover for plus3")
	}
	if text := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(text, "native (3 -> 1)") {
		t.Errorf("hover = %q", text)
	}
}

func TestHoverUnknown(t *testing.T) {
	if h := call(t, func(v *vm.VM) any { return hover(v, "no-such-word") }); h.(*protocol.Hover) != nil {
		t.Errorf("hover for unknown word = %v", h)
	}
}

func TestDefinition(t *testing.T) {
	locs := call(t, func(v *vm.VM) any { return definition(v, "square") }).([]protocol.Location)
	if len(locs) != 1 {
		t.Fatalf("got %d locations", len(locs))
	}
	if locs[0].URI != "file:///work/square.tsl" {
		t.Errorf("uri = %q", locs[0].URI)
	}
	start := locs[0].Range.Start
	if start.Line != 1 || start.Character != 1 {
		t.Errorf("start = %d:%d, want 1:1", start.Line, start.Character)
	}
	if locs[0].Range.End.Character != 7 {
		t.Errorf("end = %d, want 7", locs[0].Range.End.Character)
	}
}

func TestDefinitionOfHostWord(t *testing.T) {
	locs := call(t, func(v *vm.VM) any { return definition(v, "dup") }).([]protocol.Location)
	if locs != nil {
		t.Errorf("host word has a location: %v", locs)
	}
}

func TestLocalDefinition(t *testing.T) {
	text := "1 2 +\n\n: cube z-  z z * z * ;\ncube"
	loc, ok := localDefinition("file:///a.tsl", text, "cube")
	if !ok {
		t.Fatal("cube not found")
	}
	if loc.Range.Start.Line != 2 || loc.Range.Start.Character != 2 || loc.Range.End.Character != 6 {
		t.Errorf("range = %+v", loc.Range)
	}
	if _, ok := localDefinition("file:///a.tsl", text, "square"); ok {
		t.Error("found a definition that is not in the text")
	}
}

func TestDiagnose(t *testing.T) {
	text := ":double z-  z z + ;\n1 double frob\n"
	diags := call(t, func(v *vm.VM) any { return diagnose(v, "file:///d.tsl", text) }).([]protocol.Diagnostic)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Message != "frob ?" {
		t.Errorf("message = %q", d.Message)
	}
	if *d.Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severity = %v", *d.Severity)
	}
	if d.Range.Start.Line != 1 || d.Range.Start.Character != 9 || d.Range.End.Character != 13 {
		t.Errorf("range = %+v", d.Range)
	}
}

func TestDiagnoseLexicalError(t *testing.T) {
	diags := call(t, func(v *vm.VM) any { return diagnose(v, "file:///e.tsl", "1 \"open") }).([]protocol.Diagnostic)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics", len(diags))
	}
	if *diags[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("severity = %v", *diags[0].Severity)
	}
}

func TestDiagnoseCleanDocument(t *testing.T) {
	diags := call(t, func(v *vm.VM) any { return diagnose(v, "file:///ok.tsl", "1 2 + square .\n") }).([]protocol.Diagnostic)
	if diags == nil || len(diags) != 0 {
		t.Errorf("diagnostics = %+v, want empty non-nil", diags)
	}
}
