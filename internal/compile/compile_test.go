// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/pkg/types"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func findID(t *testing.T, doc *html.Node, id string) *html.Node {
	t.Helper()
	n, ok := dom.Find(doc, func(n *html.Node) bool { return dom.ID(n) == id })
	require.True(t, ok, "no element with id %q", id)
	return n
}

func clauseNumber(t *testing.T, ix *biblio.Index, id string) string {
	t.Helper()
	e, ok := ix.ByID(id)
	require.True(t, ok, "no entry %q", id)
	c, ok := e.(types.ClauseEntry)
	require.True(t, ok, "entry %q is %T", id, e)
	return c.Number
}

func rules(ws []types.Warning) []string {
	var out []string
	for _, w := range ws {
		out = append(out, w.RuleID)
	}
	return out
}

const concreteMethodsDoc = `
<emu-clause id="sec-abstract">
  <h1>Abstract Things</h1>
  <emu-table id="table-frob" type="abstract methods" of="Thing">
    <table><tbody><tr><td>Frob ( _x_: a Number ): a Boolean</td><td>Frobs.</td></tr></tbody></table>
  </emu-table>
  <emu-concrete-method-dfns for="Frob"></emu-concrete-method-dfns>
</emu-clause>
<emu-clause id="sec-a">
  <h1>Thing A</h1>
  <emu-clause id="sec-a-frob" type="concrete method">
    <h1>Frob ( _x_ )</h1>
    <dl class="header"><dt>for</dt><dd>a Thing A</dd><dt>effects</dt><dd>user-code</dd></dl>
  </emu-clause>
</emu-clause>
<emu-clause id="sec-b" type="concrete method">
  <h1>Frob ( _x_ )</h1>
  <dl class="header"><dt>for</dt><dd>a Thing B</dd></dl>
</emu-clause>
`

func TestConcreteMethodListing(t *testing.T) {
	doc := parseDoc(t, concreteMethodsDoc)
	res, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, "1", clauseNumber(t, res.Index, "sec-abstract"))
	assert.Equal(t, "2", clauseNumber(t, res.Index, "sec-a"))
	assert.Equal(t, "2.1", clauseNumber(t, res.Index, "sec-a-frob"))
	assert.Equal(t, "3", clauseNumber(t, res.Index, "sec-b"))

	listing, ok := dom.Find(doc, func(n *html.Node) bool { return dom.Is(n, "emu-concrete-method-dfns") })
	require.True(t, ok)
	ul, ok := dom.ChildByTag(listing, "ul")
	require.True(t, ok)
	items := dom.Children(ul)
	require.Len(t, items, 2)

	want := []struct{ href, text string }{
		{"#sec-a-frob", "2.1 a Thing A"},
		{"#sec-b", "3 a Thing B"},
	}
	for i, w := range want {
		x, ok := dom.FirstElementChild(items[i])
		require.True(t, ok)
		assert.Equal(t, w.href, dom.AttrOr(x, "href", ""))
		a, ok := dom.ChildByTag(x, "a")
		require.True(t, ok, "listing xrefs are resolved")
		assert.Equal(t, w.href, dom.AttrOr(a, "href", ""))
		assert.Equal(t, w.text, dom.TextContent(a))
	}

	defs := res.Index.ByAbstractMethodAoid("Frob", "spec")
	require.Len(t, defs, 2)
	assert.Equal(t, []string{"user-code"}, defs[0].Effects)
	require.NotNil(t, defs[0].Signature)
	assert.Equal(t, "x", defs[0].Signature.Params[0].Name)

	decl := res.Index.ByAoid("Frob", "spec")
	require.Len(t, decl, 3)
	assert.Equal(t, types.KindAbstractMethod, decl[0].Kind)
	assert.Equal(t, "table-frob", decl[0].RefID)

	assert.Equal(t, 4, res.Clauses)
	assert.Equal(t, 1, res.Tables)
	assert.Equal(t, 1, res.Listings)
	assert.Equal(t, 2, res.Xrefs)
	assert.Zero(t, res.Unresolved)
}

func TestClauseNumbering(t *testing.T) {
	doc := parseDoc(t, `
<emu-intro id="intro"><h1>Introduction</h1></emu-intro>
<emu-clause id="c1"><h1>One</h1>
  <emu-clause id="c1-1"><h1>One One</h1></emu-clause>
  <emu-clause id="c1-2"><h1>One Two</h1>
    <emu-clause id="c1-2-1"><h1>Deep</h1></emu-clause>
  </emu-clause>
</emu-clause>
<emu-clause id="c2"><h1>Two</h1></emu-clause>
<emu-clause id="c5" number="5"><h1>Five</h1></emu-clause>
<emu-clause id="c-bad" number="3"><h1>Backwards</h1></emu-clause>
<emu-annex id="a"><h1>Annex</h1>
  <emu-annex id="a1"><h1>Annex One</h1></emu-annex>
</emu-annex>
<emu-annex id="b"><h1>Annex B</h1></emu-annex>
`)
	res, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	require.NoError(t, err)

	want := map[string]string{
		"intro":  "",
		"c1":     "1",
		"c1-1":   "1.1",
		"c1-2":   "1.2",
		"c1-2-1": "1.2.1",
		"c2":     "2",
		"c5":     "5",
		"c-bad":  "6",
		"a":      "A",
		"a1":     "A.1",
		"b":      "B",
	}
	for id, num := range want {
		assert.Equal(t, num, clauseNumber(t, res.Index, id), id)
	}
	assert.Equal(t, []string{"invalid-clause-number"}, rules(res.Warnings))

	e, _ := res.Index.ByID("c1-2-1")
	assert.Equal(t, "c1-2", e.(types.ClauseEntry).Parent)
	assert.Equal(t, "Deep", e.(types.ClauseEntry).Title)
}

func TestXrefs(t *testing.T) {
	doc := parseDoc(t, `
<emu-clause id="sec-uses">
  <h1>Uses</h1>
  <p>See <emu-xref id="x1" href="#sec-later"></emu-xref>,
  <emu-xref id="x2" aoid="DoThing"></emu-xref>,
  <emu-xref id="x3" href="#sec-latr"></emu-xref>,
  <emu-xref id="x4" href="#sec-ext"></emu-xref> and
  <emu-xref id="x5"></emu-xref>.</p>
</emu-clause>
<emu-clause id="sec-later" aoid="DoThing">
  <h1>Later</h1>
</emu-clause>
`)
	ext := biblio.New()
	require.NoError(t, ext.Add(types.WithLocation(types.ClauseEntry{EntryBase: types.EntryBase{ID: "sec-ext"}, Number: "7.3"}, "https://other.example/"), "other"))

	res, err := Compile(context.Background(), doc, Options{
		Namespace: "spec",
		Externals: []External{{Name: "other", Index: ext.Freeze(), Policy: types.MergeStrict}},
	})
	require.NoError(t, err)

	link := func(id string) (string, string) {
		a, ok := dom.ChildByTag(findID(t, doc, id), "a")
		if !ok {
			return "", ""
		}
		return dom.AttrOr(a, "href", ""), dom.TextContent(a)
	}

	href, text := link("x1")
	assert.Equal(t, "#sec-later", href, "forward references resolve")
	assert.Equal(t, "2", text)

	href, text = link("x2")
	assert.Equal(t, "#sec-later", href)
	assert.Equal(t, "DoThing", text)

	href, _ = link("x3")
	assert.Empty(t, href)

	href, text = link("x4")
	assert.Equal(t, "https://other.example/#sec-ext", href)
	assert.Equal(t, "7.3", text)

	assert.Equal(t, []string{"invalid-xref", "xref-not-found"}, rules(res.Warnings))
	assert.Contains(t, res.Warnings[1].Message, `did you mean "sec-later"?`)
	assert.Equal(t, 1, res.Unresolved)

	assert.Equal(t, 3, res.Local.Len(), "external entries stay out of the local index")
	assert.Equal(t, 4, res.Index.Len())
}

func TestDuplicateIDIsFatal(t *testing.T) {
	doc := parseDoc(t, `
<emu-clause id="sec-a"><h1>A</h1></emu-clause>
<emu-clause id="sec-a"><h1>Again</h1></emu-clause>`)
	_, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	assert.True(t, errors.Is(err, biblio.ErrDuplicateID))
}

func TestMergeCollision(t *testing.T) {
	src := `<emu-clause id="sec-a"><h1>A</h1></emu-clause>`
	ext := biblio.New()
	require.NoError(t, ext.Add(types.WithLocation(types.ClauseEntry{EntryBase: types.EntryBase{ID: "sec-a"}, Number: "9"}, "https://other.example/"), "other"))
	ext.Freeze()

	_, err := Compile(context.Background(), parseDoc(t, src), Options{
		Namespace: "spec",
		Externals: []External{{Name: "other", Index: ext, Policy: types.MergeStrict}},
	})
	assert.True(t, errors.Is(err, biblio.ErrDuplicateID))

	res, err := Compile(context.Background(), parseDoc(t, src), Options{
		Namespace: "spec",
		Externals: []External{{Name: "other", Index: ext, Policy: types.MergeSupplementary}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", clauseNumber(t, res.Index, "sec-a"), "the local entry wins")
}

func TestHeaderWarnings(t *testing.T) {
	doc := parseDoc(t, `
<emu-clause id="sec-bad" type="abstract operation">
  <h1>Broken (
    _x_: )</h1>
</emu-clause>
<emu-clause id="sec-nohead" type="abstract operation"><p>no header</p></emu-clause>
<emu-clause id="sec-odd" type="widget"><h1>Odd</h1></emu-clause>
<emu-clause id="sec-ok" type="abstract operation"><h1>Fine ( )</h1></emu-clause>
<emu-table id="t" type="abstract methods" of="Thing"><table><tbody>
  <tr><td>Bad(</td><td>x</td></tr>
</tbody></table></emu-table>`)

	res, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	require.NoError(t, err)
	assert.Equal(t, []string{"type-parsing", "header-missing", "invalid-clause-type", "header-format"}, rules(res.Warnings))

	bad := res.Warnings[0]
	assert.Equal(t, types.WarnContents, bad.Type)
	assert.Equal(t, 2, bad.Line)
	assert.Equal(t, 10, bad.Column)

	assert.Empty(t, res.Index.ByAoid("Broken", "spec"), "malformed headers register nothing")
	assert.Len(t, res.Index.ByAoid("Fine", "spec"), 1)
	assert.Empty(t, res.Index.ByAoid("Bad", "spec"))
}

func TestNamespaces(t *testing.T) {
	doc := parseDoc(t, `
<emu-clause id="sec-ext" namespace="ext">
  <h1>External</h1>
  <emu-clause id="sec-ext-foo" type="concrete method"><h1>Foo ( )</h1><dl class="header"><dt>for</dt><dd>E</dd></dl></emu-clause>
  <emu-concrete-method-dfns id="inner" for="Foo"></emu-concrete-method-dfns>
</emu-clause>
<emu-clause id="sec-foo" type="concrete method"><h1>Foo ( )</h1><dl class="header"><dt>for</dt><dd>Local</dd></dl></emu-clause>
<emu-concrete-method-dfns id="outer" for="Foo"></emu-concrete-method-dfns>`)

	res, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	listed := func(id string) []string {
		ul, ok := dom.ChildByTag(findID(t, doc, id), "ul")
		require.True(t, ok)
		var out []string
		for _, li := range dom.Children(ul) {
			out = append(out, dom.TextContent(li))
		}
		return out
	}
	assert.Equal(t, []string{"1.1 E"}, listed("inner"))
	assert.Equal(t, []string{"2 Local"}, listed("outer"))
}

func TestTableRowsTakeClauseNamespace(t *testing.T) {
	doc := parseDoc(t, `
<emu-clause id="sec-widgets" namespace="widgets">
  <h1>Widgets</h1>
  <emu-table id="table-zap" type="abstract methods" of="Widget">
    <table><tbody><tr><td>Zap ( _w_: a Widget ): a Boolean</td><td>Zaps.</td></tr></tbody></table>
  </emu-table>
  <p><emu-xref id="inner" aoid="Zap"></emu-xref></p>
</emu-clause>
<emu-clause id="sec-main"><h1>Main</h1><p><emu-xref id="outer" aoid="Zap"></emu-xref></p></emu-clause>`)

	res, err := Compile(context.Background(), doc, Options{Namespace: "spec"})
	require.NoError(t, err)

	tbl, ok := res.Index.ByID("table-zap")
	require.True(t, ok)
	assert.Equal(t, "widgets", tbl.Base().Namespace)

	ops := res.Index.ByAoid("Zap", "widgets")
	require.Len(t, ops, 1)
	assert.Equal(t, types.KindAbstractMethod, ops[0].Kind)
	assert.Equal(t, "table-zap", ops[0].RefID)
	assert.Equal(t, "widgets", ops[0].Namespace)
	assert.Empty(t, res.Index.ByAoid("Zap", "spec"))

	a, ok := dom.ChildByTag(findID(t, doc, "inner"), "a")
	require.True(t, ok, "xref in the same namespace resolves")
	assert.Equal(t, "#table-zap", dom.AttrOr(a, "href", ""))
	assert.Equal(t, "Zap", dom.TextContent(a))

	_, ok = dom.ChildByTag(findID(t, doc, "outer"), "a")
	assert.False(t, ok, "rows are not visible from the default namespace")
	assert.Equal(t, []string{"xref-not-found"}, rules(res.Warnings))
}

func TestStrictMode(t *testing.T) {
	doc := parseDoc(t, `<emu-clause id="a"><h1>A</h1><emu-xref href="#nope"></emu-xref><emu-xref href="#nada"></emu-xref></emu-clause>`)
	var seen []string
	res, err := Compile(context.Background(), doc, Options{
		Namespace: "spec",
		Strict:    true,
		Warn:      func(w types.Warning) { seen = append(seen, w.RuleID) },
	})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.Equal(t, []string{"xref-not-found", "xref-not-found"}, seen)
	assert.Len(t, res.Warnings, 2, "the result is still returned")
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, parseDoc(t, concreteMethodsDoc), Options{Namespace: "spec"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollector(t *testing.T) {
	c := &Collector{}
	assert.NoError(t, c.Err())

	sink := c.Sink()
	sink(types.Warning{RuleID: "a", Message: "first"})
	sink(types.Warning{RuleID: "b", Message: "second"})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, rules(c.Warnings()))

	err := c.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first (a)")
	assert.Contains(t, err.Error(), "second (b)")
}
