package pagination

const (
	// DefaultLimit applies when the caller omits or zeroes the limit.
	DefaultLimit = 100
	// MaxLimit caps a single page to keep list queries bounded.
	MaxLimit = 1000
)

// Page is an offset/limit window over a newest-first listing.
type Page struct {
	Offset int `form:"offset" json:"offset"`
	Limit  int `form:"limit" json:"limit"`
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}
