package canonical

// Deduper accumulates postings keyed by canonical link. First-seen wins:
// inserting a link that is already present is a no-op, so title/company from
// the earliest acceptance are kept and output order matches insertion order.
// Not safe for concurrent use; callers serialize access.
type Deduper struct {
	seen     map[string]struct{}
	postings []Posting
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add records the posting unless its canonical link was already seen.
// Reports whether the posting was accepted.
func (d *Deduper) Add(p Posting) bool {
	if _, dup := d.seen[p.Link]; dup {
		return false
	}
	d.seen[p.Link] = struct{}{}
	d.postings = append(d.postings, p)
	return true
}

func (d *Deduper) Has(link string) bool {
	_, ok := d.seen[link]
	return ok
}

func (d *Deduper) Len() int { return len(d.postings) }

// Postings returns the accepted postings in insertion order.
func (d *Deduper) Postings() []Posting { return d.postings }
