// Package detection finds catalog tools mentioned in a tweet by fuzzy matching its keywords.
package detection

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

// DefaultFuzzyMatchThreshold is the minimum similarity that counts as a mention.
const DefaultFuzzyMatchThreshold = 0.8

// Similarity returns the normalized Levenshtein similarity of a and b in [0,1].
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	if longest == 0 {
		return 1
	}

	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

type entry struct {
	ref   domain.ToolRef
	terms []string // folded name followed by folded aliases
}

// Snapshot is an immutable catalog and threshold used by a single detection call.
type Snapshot struct {
	entries   []entry
	catalog   []domain.ToolCatalogEntry
	threshold float64
}

func newSnapshot(catalog []domain.ToolCatalogEntry, threshold float64) *Snapshot {
	caser := cases.Fold()
	s := &Snapshot{
		entries:   make([]entry, 0, len(catalog)),
		catalog:   cloneCatalog(catalog),
		threshold: threshold,
	}

	for _, c := range s.catalog {
		e := entry{ref: c.Ref(), terms: make([]string, 0, len(c.Aliases)+1)}

		for _, term := range append([]string{c.Name}, c.Aliases...) {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}

			e.terms = append(e.terms, caser.String(term))
		}

		s.entries = append(s.entries, e)
	}

	return s
}

// Threshold returns the fuzzy-match threshold of the snapshot.
func (s *Snapshot) Threshold() float64 { return s.threshold }

// Catalog returns a copy of the catalog the snapshot was built from.
func (s *Snapshot) Catalog() []domain.ToolCatalogEntry { return cloneCatalog(s.catalog) }

// Detect matches each keyword against the catalog in catalog order. The first entry whose
// name or any alias reaches the threshold is credited for that keyword and no further
// entries are checked. The result is deduplicated by tool id, in first-detection order.
func (s *Snapshot) Detect(keywords []string) []domain.ToolRef {
	caser := cases.Fold()
	found := make([]domain.ToolRef, 0)
	seen := make(map[string]struct{})

	for _, kw := range keywords {
		kw = caser.String(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}

		ref, ok := s.match(kw)
		if !ok {
			continue
		}

		if _, dup := seen[ref.ID]; dup {
			continue
		}

		seen[ref.ID] = struct{}{}

		found = append(found, ref)
	}

	return found
}

func (s *Snapshot) match(keyword string) (domain.ToolRef, bool) {
	for _, e := range s.entries {
		for _, term := range e.terms {
			if Similarity(keyword, term) >= s.threshold {
				return e.ref, true
			}
		}
	}

	return domain.ToolRef{}, false
}

// Detector holds the active catalog snapshot. Updates swap the snapshot atomically;
// calls already in flight keep using the snapshot they started with.
type Detector struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	logger  *zerolog.Logger
}

// New creates a Detector. A zero threshold selects DefaultFuzzyMatchThreshold.
func New(catalog []domain.ToolCatalogEntry, threshold float64, logger *zerolog.Logger) (*Detector, error) {
	if threshold == 0 {
		threshold = DefaultFuzzyMatchThreshold
	}

	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	d := &Detector{logger: logger}
	d.current.Store(newSnapshot(catalog, threshold))
	observability.CatalogSize.Set(float64(len(catalog)))

	return d, nil
}

// Snapshot returns the active snapshot.
func (d *Detector) Snapshot() *Snapshot {
	return d.current.Load()
}

// Detect matches keywords against the active snapshot.
func (d *Detector) Detect(keywords []string) []domain.ToolRef {
	return d.Snapshot().Detect(keywords)
}

// UpdateCatalog replaces the catalog used by subsequent calls.
func (d *Detector) UpdateCatalog(catalog []domain.ToolCatalogEntry) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.current.Store(newSnapshot(catalog, d.current.Load().threshold))
	observability.CatalogSize.Set(float64(len(catalog)))

	d.logger.Info().Int("tools", len(catalog)).Msg("tool catalog updated")

	return nil
}

// UpdateThreshold replaces the fuzzy-match threshold used by subsequent calls.
func (d *Detector) UpdateThreshold(threshold float64) error {
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.current.Load()
	d.current.Store(&Snapshot{entries: cur.entries, catalog: cur.catalog, threshold: threshold})

	d.logger.Info().Float64("fuzzy_match_threshold", threshold).Msg("fuzzy match threshold updated")

	return nil
}

func validateThreshold(threshold float64) error {
	if !(threshold > 0 && threshold <= 1) {
		return fmt.Errorf("%w: fuzzy match threshold %v outside (0,1]", errors.ErrInvalidInput, threshold)
	}

	return nil
}

func validateCatalog(catalog []domain.ToolCatalogEntry) error {
	ids := make(map[string]struct{}, len(catalog))

	for i, c := range catalog {
		if c.ID == "" {
			return fmt.Errorf("%w: catalog entry %d has no id", errors.ErrInvalidInput, i)
		}

		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("%w: duplicate catalog id %q", errors.ErrInvalidInput, c.ID)
		}

		ids[c.ID] = struct{}{}
	}

	return nil
}

func cloneCatalog(in []domain.ToolCatalogEntry) []domain.ToolCatalogEntry {
	out := make([]domain.ToolCatalogEntry, len(in))

	for i, c := range in {
		out[i] = c
		out[i].Aliases = append([]string(nil), c.Aliases...)

		if c.Metadata != nil {
			out[i].Metadata = make(map[string]string, len(c.Metadata))
			for k, v := range c.Metadata {
				out[i].Metadata[k] = v
			}
		}
	}

	return out
}
