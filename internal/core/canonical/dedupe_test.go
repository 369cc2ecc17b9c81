package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPosting(t *testing.T, title, company, link, source string) Posting {
	t.Helper()
	p, err := NewPosting(title, company, link, source)
	require.NoError(t, err)
	return p
}

func TestDeduperFirstSeenWins(t *testing.T) {
	d := NewDeduper()

	first := mustPosting(t, "Software Intern", "Acme", "https://acme.greenhouse.io/jobs/12345", "https://acme.com/careers")
	assert.True(t, d.Add(first))

	// Same posting rediscovered under a noisier URL with different text.
	dup := mustPosting(t, "SWE Intern (Summer)", "", "https://acme.greenhouse.io/jobs/12345/?utm_source=feed", "https://other.com")
	assert.Equal(t, first.Link, dup.Link, "canonicalization should collapse the two URLs")
	assert.False(t, d.Add(dup))

	require.Equal(t, 1, d.Len())
	got := d.Postings()[0]
	assert.Equal(t, "Software Intern", got.Title)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "https://acme.com/careers", got.Source)
}

func TestDeduperPreservesInsertionOrder(t *testing.T) {
	d := NewDeduper()
	links := []string{
		"https://acme.greenhouse.io/jobs/11111",
		"https://jobs.lever.co/acme/22222",
		"https://acme.com/careers/intern-openings/33333",
	}
	for i, link := range links {
		p := mustPosting(t, "Intern", "Acme", link, "https://seed")
		assert.True(t, d.Add(p), "link %d", i)
	}

	got := d.Postings()
	require.Len(t, got, len(links))
	for i, link := range links {
		canon, err := Canonicalize(link)
		require.NoError(t, err)
		assert.Equal(t, canon, got[i].Link)
		assert.True(t, d.Has(canon))
	}
}
