package pagetext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistillKeepsContentDropsChrome(t *testing.T) {
	html := `<html><body>
		<nav><a href="/">Home</a><a href="/about">About</a></nav>
		<div class="cookie-consent">We use cookies</div>
		<main>
			<h1>Open internships</h1>
			<a href="/jobs/1">Software Engineer Intern</a>
			<a href="/jobs/2">Data Science Intern</a>
		</main>
		<footer>© Acme Corp</footer>
		<script>analytics()</script>
	</body></html>`

	out := Distill(html)

	assert.Contains(t, out, "Open internships")
	assert.Contains(t, out, "Software Engineer Intern")
	assert.Contains(t, out, "Data Science Intern")
	assert.NotContains(t, out, "We use cookies")
	assert.NotContains(t, out, "About")
	assert.NotContains(t, out, "analytics")
}

func TestDistillDedupesRepeatedLinkLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < 20; i++ {
		b.WriteString(`<p><a href="/apply">Apply now</a></p>`)
	}
	b.WriteString("</main></body></html>")

	out := Distill(b.String())
	assert.Equal(t, 1, strings.Count(out, "Apply now"))
}

func TestDistillDropsImageOnlyLines(t *testing.T) {
	html := `<html><body><main>
		<p><img src="/logo.png" alt="Acme logo"></p>
		<p>Join our team</p>
	</main></body></html>`

	out := Distill(html)
	assert.Contains(t, out, "Join our team")
	assert.NotContains(t, out, "logo.png")
}

func TestDistillReplacesBraces(t *testing.T) {
	out := Distill(`<html><body><main><p>Apply {today} or {tomorrow}</p></main></body></html>`)
	assert.NotContains(t, out, "{")
	assert.NotContains(t, out, "}")
	assert.Contains(t, out, "(today)")
}

func TestDistillPrefersMainRegion(t *testing.T) {
	html := `<html><body>
		<div>Wrapper noise outside main</div>
		<main><p>Inside main</p></main>
	</body></html>`

	out := Distill(html)
	assert.Contains(t, out, "Inside main")
	assert.NotContains(t, out, "Wrapper noise")
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a   b  ", "a b"},
		{"a\n\tb\r\nc", "a b c"},
		{"", ""},
		{"   ", ""},
		{"single", "single"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseSpace(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("abc", -1))
	// Runes, not bytes.
	assert.Equal(t, "hé", Truncate("héllo", 2))
}
