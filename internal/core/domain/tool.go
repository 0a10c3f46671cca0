package domain

// ToolCatalogEntry describes a known AI coding tool.
// Aliases are matched in the order they are listed.
type ToolCatalogEntry struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Aliases  []string          `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Ref returns the lightweight reference stored on enriched tweets.
func (e ToolCatalogEntry) Ref() ToolRef {
	return ToolRef{ID: e.ID, Name: e.Name}
}

// ToolRef identifies a catalog tool detected in a tweet.
type ToolRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
