// Package remote holds the remotely managed rule configuration.
//
// A Snapshot is a read-only view of the last rule document fetched from a
// remote source. It is refreshed by a Poller and read by
// manager.InitializeFromRemote. Readers never see a partially applied
// update.
package remote

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"
	"time"

	"mercator-hq/rulec/pkg/rgl/document"
	"mercator-hq/rulec/pkg/rgl/parser"
)

// Snapshot is a document swapped atomically on update.
type Snapshot struct {
	state  atomic.Pointer[state]
	parser *parser.Parser
}

type state struct {
	doc       *document.Node
	source    string
	checksum  string
	updatedAt time.Time
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{parser: parser.NewParser()}
}

// Default is the process-wide snapshot refreshed by the run command.
var Default = NewSnapshot()

// Update parses text and replaces the snapshot. An unparseable document
// leaves the previous one in place. changed is false when text is identical
// to the current document.
func (s *Snapshot) Update(source, text string) (changed bool, err error) {
	checksum := fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
	if cur := s.state.Load(); cur != nil && cur.checksum == checksum {
		return false, nil
	}

	doc, err := s.parser.ParseDocument(source, text)
	if err != nil {
		return false, err
	}

	s.state.Store(&state{
		doc:       doc,
		source:    source,
		checksum:  checksum,
		updatedAt: time.Now(),
	})
	return true, nil
}

// Set replaces the snapshot with an already parsed document.
func (s *Snapshot) Set(source string, doc *document.Node) {
	s.state.Store(&state{
		doc:       doc,
		source:    source,
		updatedAt: time.Now(),
	})
}

// Document returns the current document, or nil if the snapshot was never
// updated.
func (s *Snapshot) Document() *document.Node {
	if cur := s.state.Load(); cur != nil {
		return cur.doc
	}
	return nil
}

// Lookup returns the node at a dotted key path of the current document.
func (s *Snapshot) Lookup(path string) (*document.Node, bool) {
	doc := s.Document()
	if doc == nil {
		return nil, false
	}
	return doc.Lookup(path)
}

// Source returns where the current document came from.
func (s *Snapshot) Source() string {
	if cur := s.state.Load(); cur != nil {
		return cur.source
	}
	return ""
}

// Checksum returns the SHA-256 of the current document text. It is empty
// for documents installed with Set.
func (s *Snapshot) Checksum() string {
	if cur := s.state.Load(); cur != nil {
		return cur.checksum
	}
	return ""
}

// UpdatedAt returns when the snapshot was last replaced.
func (s *Snapshot) UpdatedAt() time.Time {
	if cur := s.state.Load(); cur != nil {
		return cur.updatedAt
	}
	return time.Time{}
}
