// Package lexicon provides a centralized registry of multilingual behavioral
// phrase indicators used by feature extraction. Matching is plain substring
// containment over case-folded text; there is no semantic analysis.
//
// Design principles:
// - LOAD ONCE: Built-in phrase tables are registered at first use
// - DRY: Single source of truth for all behavioral phrase lists
// - CATEGORIZED: Phrases organized by behavioral category for targeted scans
// - OVERRIDABLE: Deployments can replace tables via a YAML file
package lexicon

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Category identifies a behavioral phrase category.
type Category string

const (
	CategoryEmotionalDependency Category = "emotional_dependency"
	CategoryIsolation           Category = "isolation"
	CategorySecrecy             Category = "secrecy"
	CategoryPlatformMigration   Category = "platform_migration"
)

// Categories lists all registered phrase categories.
var Categories = []Category{
	CategoryEmotionalDependency,
	CategoryIsolation,
	CategorySecrecy,
	CategoryPlatformMigration,
}

// Registry holds phrase tables organized by category. Phrases are stored
// case-folded so matching only needs to fold the input text.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]string
}

// global singleton - initialized once at first use
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global phrase registry, populated with the built-in
// multilingual tables (English, Portuguese, Spanish).
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]string),
	}
	r.register(CategoryEmotionalDependency, emotionalDependencyPhrases)
	r.register(CategoryIsolation, isolationPhrases)
	r.register(CategorySecrecy, secrecyPhrases)
	r.register(CategoryPlatformMigration, platformMigrationPhrases)
	return r
}

// register folds and stores a phrase list under a category.
func (r *Registry) register(cat Category, phrases []string) {
	folded := make([]string, 0, len(phrases))
	for _, p := range phrases {
		folded = append(folded, foldCase(p))
	}
	r.byCategory[cat] = folded
}

// foldCase lowercases text with full Unicode awareness. A Caser is not safe
// for concurrent use, so one is created per call.
func foldCase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Phrases returns the phrase list for a category. Returns an empty slice if
// the category has no phrases (never nil).
func (r *Registry) Phrases(cat Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if phrases, ok := r.byCategory[cat]; ok {
		return phrases
	}
	return []string{}
}

// Matches reports whether the text contains any phrase from the category.
// Matching is case-insensitive substring containment; each text matches a
// category at most once regardless of how many phrases it contains.
func (r *Registry) Matches(text string, cat Category) bool {
	folded := foldCase(text)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, phrase := range r.byCategory[cat] {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

// TotalPhrases returns the count of registered phrases across all categories.
func (r *Registry) TotalPhrases() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, phrases := range r.byCategory {
		total += len(phrases)
	}
	return total
}

// CategoryCount returns the number of phrases in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}

// lexiconFile is the YAML shape for phrase table overrides.
type lexiconFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadFile replaces phrase tables with entries from a YAML file. Categories
// absent from the file keep their current tables. Unknown category names are
// rejected so typos do not silently drop a table.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lexicon file: %w", err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse lexicon file: %w", err)
	}

	known := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, phrases := range file.Categories {
		cat := Category(name)
		if !known[cat] {
			return fmt.Errorf("unknown lexicon category: %q", name)
		}
		folded := make([]string, 0, len(phrases))
		for _, p := range phrases {
			folded = append(folded, foldCase(p))
		}
		r.byCategory[cat] = folded
	}
	return nil
}
