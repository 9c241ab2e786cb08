// Package trie is a 26-ary prefix tree over lowercase ASCII keys.
//
// Nodes are created lazily on insertion and never removed; the root owns the
// whole tree. The structure provides no locking.
package trie

import (
	"errors"
	"fmt"
	"iter"
)

const alphabetSize = 26

var ErrUnsupportedCharacter = errors.New("trie: unsupported character")

// Status is the outcome of a Lookup.
type Status int

const (
	// Absent means no stored key starts with the looked up key.
	Absent Status = iota
	// Incomplete means the key is a proper prefix of a stored key but was never inserted itself.
	Incomplete
	// Found means the key was inserted.
	Found
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Incomplete:
		return "incomplete"
	default:
		return "absent"
	}
}

type node struct {
	children [alphabetSize]*node
	wordEnd  bool
}

// Trie holds the root of the tree and the number of distinct keys stored.
type Trie struct {
	root *node
	size int
}

func New() *Trie {
	return &Trie{root: &node{}}
}

func slot(c byte) (int, bool) {
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return int(c - 'a'), true
}

// Insert stores key, creating intermediate nodes as needed.
// Keys must consist of 'a'-'z' only; anything else is rejected before the
// tree is touched. Inserting an existing key is a no-op, as is the empty key.
func (t *Trie) Insert(key string) error {
	for i := 0; i < len(key); i++ {
		if _, ok := slot(key[i]); !ok {
			r := []rune(key[i:])[0]
			return fmt.Errorf("%w %q at byte %d of %q", ErrUnsupportedCharacter, r, i, key)
		}
	}
	if key == "" {
		return nil
	}

	current := t.root
	for i := 0; i < len(key); i++ {
		idx, _ := slot(key[i])
		if current.children[idx] == nil {
			current.children[idx] = &node{}
		}
		current = current.children[idx]
	}
	if !current.wordEnd {
		current.wordEnd = true
		t.size++
	}
	return nil
}

// walk follows key from the root and returns the node it ends on, or nil.
func (t *Trie) walk(key string) *node {
	current := t.root
	for i := 0; i < len(key); i++ {
		idx, ok := slot(key[i])
		if !ok {
			return nil
		}
		current = current.children[idx]
		if current == nil {
			return nil
		}
	}
	return current
}

func (t *Trie) Lookup(key string) Status {
	n := t.walk(key)
	switch {
	case n == nil:
		return Absent
	case n.wordEnd:
		return Found
	case n.hasChildren():
		return Incomplete
	default:
		return Absent
	}
}

func (t *Trie) Contains(key string) bool {
	return t.Lookup(key) == Found
}

// PrefixSearch yields every stored key that starts with prefix, in
// lexicographic order.
func (t *Trie) PrefixSearch(prefix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := t.walk(prefix)
		if start == nil {
			return
		}
		buf := []byte(prefix)
		start.visit(&buf, yield)
	}
}

// visit walks the subtree depth-first; it returns false once yield asks to stop.
func (n *node) visit(buf *[]byte, yield func(string) bool) bool {
	if n.wordEnd && !yield(string(*buf)) {
		return false
	}
	for i, child := range n.children {
		if child == nil {
			continue
		}
		*buf = append(*buf, byte('a'+i))
		ok := child.visit(buf, yield)
		*buf = (*buf)[:len(*buf)-1]
		if !ok {
			return false
		}
	}
	return true
}

func (n *node) hasChildren() bool {
	for _, child := range n.children {
		if child != nil {
			return true
		}
	}
	return false
}

// Len returns the number of distinct keys stored.
func (t *Trie) Len() int {
	return t.size
}
