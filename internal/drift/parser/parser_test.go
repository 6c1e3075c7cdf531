package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHash_IdenticalContentSameHash(t *testing.T) {
	a := ContentHash([]byte("package main\n"))
	b := ContentHash([]byte("package main\n"))
	c := ContentHash([]byte("package other\n"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestDetectLanguage_UnknownExtensionSkips(t *testing.T) {
	_, ok := DetectLanguage("file.unknownext")
	require.False(t, ok)

	lang, ok := DetectLanguage("main.go")
	require.True(t, ok)
	require.Equal(t, "go", lang.Name)
}

func TestManager_CacheHitSkipsGrammarCall(t *testing.T) {
	m := NewManager(16)
	calls := 0
	m.RegisterGrammar("go", func(path string, content []byte) (ParseResult, error) {
		calls++
		return ParseResult{Functions: []Function{{Name: "main"}}}, nil
	})

	content := []byte("package main\nfunc main() {}\n")
	r1, ok, err := m.Parse("a.go", content, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, calls)

	r2, ok, err := m.Parse("b.go", content, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, calls, "identical content must hit the cache regardless of path")
	require.Equal(t, r1.ContentHash, r2.ContentHash)
	require.Equal(t, r1.Functions, r2.Functions)
}

func TestManager_UnregisteredGrammarErrors(t *testing.T) {
	m := NewManager(4)
	_, ok, err := m.Parse("main.go", []byte("package main\n"), false)
	require.True(t, ok)
	require.Error(t, err)
}

func TestManager_GrammarErrorWraps(t *testing.T) {
	m := NewManager(4)
	m.RegisterGrammar("go", func(path string, content []byte) (ParseResult, error) {
		return ParseResult{}, errors.New("bad token")
	})
	_, ok, err := m.Parse("main.go", []byte("package main\n"), false)
	require.True(t, ok)
	require.Error(t, err)
}

func TestCache_AdmissionRejectsColdCandidateUnderPressure(t *testing.T) {
	c := NewCache(2)
	hot1 := ParseResult{ContentHash: "hot1", Language: "go"}
	hot2 := ParseResult{ContentHash: "hot2", Language: "go"}
	c.Put(hot1)
	c.Put(hot2)

	// Access both existing entries repeatedly so their sketch frequency is
	// high before a cold one-off candidate arrives.
	for i := 0; i < 20; i++ {
		c.Get("hot1", "go")
		c.Get("hot2", "go")
	}

	cold := ParseResult{ContentHash: "cold", Language: "go"}
	c.Put(cold)

	require.Equal(t, 2, c.Len())
	_, stillThere := c.Get("hot1", "go")
	require.True(t, stillThere)
}
