package parser

import (
	"sync"
	"time"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// GrammarParser turns file content into a ParseResult for one language. Real
// grammars (tree-sitter bindings or equivalent) are an external collaborator
// this package treats as opaque; GrammarParser is the seam they plug into.
type GrammarParser func(path string, content []byte) (ParseResult, error)

// Manager resolves a language by extension, parses through its registered
// GrammarParser, and caches the result by content hash so repeat scans of
// unchanged files never re-invoke the grammar.
type Manager struct {
	mu      sync.RWMutex
	cache   *Cache
	parsers map[string]GrammarParser
}

// NewManager returns a Manager with a TinyLFU-admission cache sized for
// cacheCapacity entries.
func NewManager(cacheCapacity int) *Manager {
	return &Manager{cache: NewCache(cacheCapacity), parsers: make(map[string]GrammarParser)}
}

// RegisterGrammar binds language's GrammarParser. Re-registering a language
// replaces its previous parser.
func (m *Manager) RegisterGrammar(language string, fn GrammarParser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsers[language] = fn
}

// Parse returns the ParseResult for path's content. ok is false when the
// file's extension has no registered language — the caller should skip
// language-specific stages for it rather than treat it as an error. A
// registered language with no grammar yet wired returns an
// UnsupportedLanguage error, since that is an integration gap rather than
// an expected "nothing to do here" case.
func (m *Manager) Parse(path string, content []byte, forceFullScan bool) (ParseResult, bool, error) {
	lang, ok := DetectLanguage(path)
	if !ok {
		return ParseResult{}, false, nil
	}

	hash := ContentHash(content)

	if !forceFullScan {
		if cached, hit := m.cache.Get(hash, lang.Name); hit {
			return cached, true, nil
		}
	}

	m.mu.RLock()
	fn := m.parsers[lang.Name]
	m.mu.RUnlock()
	if fn == nil {
		return ParseResult{}, true, derr.UnsupportedLanguage(path, lang.Name)
	}

	start := time.Now()
	result, err := fn(path, content)
	if err != nil {
		return ParseResult{}, true, derr.SyntaxError(path, err)
	}
	result.Path = path
	result.Language = lang.Name
	result.ContentHash = hash
	result.ParseTime = time.Since(start)

	m.cache.Put(result)
	return result, true, nil
}

// CacheLen reports how many entries are currently cached, for metrics.
func (m *Manager) CacheLen() int {
	return m.cache.Len()
}
