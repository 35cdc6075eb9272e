package knowledge

import "time"

// Passage is one indexed chunk of guideline text.
type Passage struct {
	ID        string            // stable chunk identifier (content hash)
	Content   string            // chunk text
	Metadata  map[string]string // source document, section, page
	CreatedAt time.Time
}

// Result pairs a passage with its similarity to the query.
type Result struct {
	Passage    Passage
	Similarity float32 // cosine similarity, 0-1
}

// SearchOption configures a search using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	filter  map[string]string
	timeout time.Duration
}

// WithTopK sets the maximum number of passages to return. Default 3.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFilter restricts results to passages whose metadata contains the
// key/value pair. Multiple filters AND together.
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithSource restricts results to passages ingested from one source
// document. Shorthand for WithFilter("source", name).
func WithSource(name string) SearchOption {
	return WithFilter("source", name)
}

// WithTimeout bounds the whole search (embedding plus vector query).
// Default 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    3,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
