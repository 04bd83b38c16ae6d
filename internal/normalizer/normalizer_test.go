package normalizer

import (
	"testing"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Hello", want: "Hello"},
		{name: "surrounding whitespace", in: "  Hello \n", want: "Hello"},
		{name: "inner runs collapse", in: "a \t  b", want: "a b"},
		{name: "blank lines dropped", in: "a\n\n   \nb\r\n", want: "a\nb"},
		{name: "nbsp is whitespace", in: "a  b", want: "a b"},
		{name: "empty", in: " \n\t ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeText(got), "normalization is idempotent")
		})
	}
}

func TestNormalizeHTML_VisibleText(t *testing.T) {
	doc := `<!DOCTYPE html>
<html><head><title>ignored</title><style>p{color:red}</style></head>
<body>
  <!-- a comment -->
  <h1>Title</h1>
  <p>Hello <b>brave</b>
     new world</p>
  <script>var tracking = Date.now();</script>
  <noscript>enable js</noscript>
  <ul><li>one</li><li>two</li></ul>
  line<br>break
</body></html>`

	got, err := NormalizeHTML([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, "Title\nHello brave new world\none\ntwo\nline\nbreak", got)
}

func TestNormalizeHTML_WhitespaceStability(t *testing.T) {
	a, err := Normalize([]byte("<p>Hello</p>"), models.KindHTML, "")
	require.NoError(t, err)
	b, err := Normalize([]byte("<html>\n  <body>\n\n<p>   Hello\n</p>\n</body></html>\n"), models.KindHTML, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "Hello", a)
}

func TestNormalizeHTML_NonBreakingSpaceAtInlineBoundary(t *testing.T) {
	cases := map[string]string{
		"trailing": "<p>a&nbsp;<b>b</b></p>",
		"leading":  "<p><b>a</b>&nbsp;b</p>",
		"em space": "<p>a\u2003<i>b</i></p>",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize([]byte(doc), models.KindHTML, "")
			require.NoError(t, err)
			assert.Equal(t, "a b", got)
		})
	}
}

func TestNormalizeHTML_ScriptChangesIgnored(t *testing.T) {
	a, err := NormalizeHTML([]byte(`<p>Price: 10</p><script>var t=1</script>`), "")
	require.NoError(t, err)
	b, err := NormalizeHTML([]byte(`<p>Price: 10</p><script>var t=2</script>`), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeHTML_Selector(t *testing.T) {
	doc := []byte(`<div id="nav">Menu</div><main><p>Body</p><p>More</p></main><footer>© 2024</footer>`)

	got, err := NormalizeHTML(doc, "main p")
	require.NoError(t, err)
	assert.Equal(t, "Body\nMore", got)

	got, err = NormalizeHTML(doc, ".missing")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestNormalizeHTML_Malformed(t *testing.T) {
	_, err := NormalizeHTML([]byte("just some words"), "")
	var mErr *MalformedContentError
	require.ErrorAs(t, err, &mErr)
	assert.Contains(t, mErr.Error(), "no markup")

	_, err = NormalizeHTML([]byte("<p>x</p>"), "p[")
	require.ErrorAs(t, err, &mErr)
	assert.Error(t, mErr.Unwrap())
}

func TestNormalize_Kinds(t *testing.T) {
	raw := []byte("<p>Hi</p>")

	text, err := Normalize(raw, models.KindText, "")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", text)

	auto, err := Normalize(raw, models.KindAuto, "")
	require.NoError(t, err)
	assert.Equal(t, "Hi", auto)

	plain, err := Normalize([]byte(" Hi  there "), models.KindAuto, "")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", plain)
}
