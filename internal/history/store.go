package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
)

var (
	// ErrNothingToRestore is returned by Restore for index 0 (already on the
	// clipboard) or an index past the end of the page.
	ErrNothingToRestore = errors.New("nothing to restore")

	// ErrDelivery wraps clipboard bridge failures. The page has already been
	// persisted when it is returned.
	ErrDelivery = errors.New("clipboard delivery failed")

	// ErrNotLoaded is returned when an operation runs before Load.
	ErrNotLoaded = errors.New("history: page not loaded")

	// ErrPersisted is returned when a mutation is attempted after the page was
	// flushed. One invocation applies one operation.
	ErrPersisted = errors.New("history: page already persisted")
)

// PageStorage reads and writes the encoded page bytes.
type PageStorage interface {
	Read() ([]byte, error)
	Write(plain []byte) error
}

// Gate decides whether a capture must be suppressed.
type Gate interface {
	Blocked(ctx context.Context, spec string) (bool, error)
}

// Classifier returns the MIME type of a buffer.
type Classifier interface {
	Classify(data []byte) string
}

// Bridge places restored content on the system clipboard.
type Bridge interface {
	CopyLiteral(ctx context.Context, data []byte) error
	CopyFromFile(ctx context.Context, path string) error
}

// Config wires a Store to its collaborators. Gate, Classifier and Bridge may be
// nil when the operation does not need them.
type Config struct {
	Page        string
	Storage     PageStorage
	Gate        Gate
	Classifier  Classifier
	Bridge      Bridge
	ScratchPath string

	// RemoveScratch deletes the scratch file once the bridge has consumed it.
	// Set it for encrypted pages so restored plaintext does not linger.
	RemoveScratch bool
}

// State is the lifecycle position of a Store within one invocation.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateMutated
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateMutated:
		return "mutated"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes what Capture did with a payload.
type Outcome int

const (
	Stored Outcome = iota
	Duplicate
	Blocked
	Empty
	Oversize
)

func (o Outcome) String() string {
	switch o {
	case Stored:
		return "stored"
	case Duplicate:
		return "duplicate"
	case Blocked:
		return "blocked"
	case Empty:
		return "empty"
	case Oversize:
		return "oversize"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Store owns the ordered entries of one page. Index 0 is the entry believed
// to be on the live clipboard.
type Store struct {
	cfg     Config
	entries []*Entry
	state   State
}

// New returns an unloaded Store.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// State returns the current lifecycle state.
func (s *Store) State() State { return s.state }

// Len returns the number of entries on the page.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns the entry at index i, or nil if out of range.
func (s *Store) Entry(i int) *Entry {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i]
}

// Load hydrates the page from storage. A page that was never written loads
// as empty.
func (s *Store) Load() error {
	if s.state != StateUnloaded {
		return fmt.Errorf("history: load in state %s", s.state)
	}
	raw, err := s.cfg.Storage.Read()
	if err != nil {
		return fmt.Errorf("read page %q: %w", s.cfg.Page, err)
	}
	if len(raw) == 0 {
		s.entries = nil
		s.state = StateLoaded
		return nil
	}
	entries, err := decodePage(raw)
	if err != nil {
		return fmt.Errorf("decode page %q: %w", s.cfg.Page, err)
	}
	s.entries = entries
	s.state = StateLoaded
	slog.Debug("page loaded", "page", s.cfg.Page, "entries", len(entries))
	return nil
}

// Capture records data as the newest entry unless the gate vetoes it, it is
// empty or oversize, or it equals the current head. Only the head is compared,
// so non-adjacent repeats are kept.
func (s *Store) Capture(ctx context.Context, data []byte, blockSpec string) (Outcome, error) {
	if err := s.mutable(); err != nil {
		return 0, err
	}

	if blockSpec != "" && s.cfg.Gate != nil {
		blocked, err := s.cfg.Gate.Blocked(ctx, blockSpec)
		if err != nil {
			return 0, fmt.Errorf("capture gate: %w", err)
		}
		if blocked {
			slog.Debug("capture vetoed", "page", s.cfg.Page, "block", blockSpec)
			return Blocked, nil
		}
	}

	if len(data) == 0 {
		slog.Info("nothing to capture", "page", s.cfg.Page)
		return Empty, nil
	}
	if len(data) > MaxEntrySize {
		slog.Warn("clipboard entry too big, not saving",
			"page", s.cfg.Page,
			"size", len(data),
			"max", MaxEntrySize,
		)
		return Oversize, nil
	}

	var contentType string
	if len(data) > MinClassifySize && s.cfg.Classifier != nil {
		contentType = s.cfg.Classifier.Classify(data)
	}
	e := newEntry(data, contentType)

	if len(s.entries) > 0 && s.entries[0].Equal(e) {
		slog.Debug("clipboard unchanged", "page", s.cfg.Page, "size", e.Size())
		return Duplicate, nil
	}

	s.entries = slices.Insert(s.entries, 0, e)
	s.state = StateMutated
	slog.Debug("clipboard captured",
		"page", s.cfg.Page,
		"size", e.Size(),
		"mime", e.ContentType(),
		"entries", len(s.entries),
	)
	return Stored, nil
}

// List returns up to n previews starting at the head. It never mutates the
// page.
func (s *Store) List(n int) []string {
	n = min(n, len(s.entries))
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i, e := range s.entries[:n] {
		out[i] = e.Render(DefaultPreviewWidth)
	}
	return out
}

// Restore removes the entry at index, persists the shrunk page and only then
// hands the entry to the clipboard bridge. Placing content on the clipboard
// can spawn a fresh capture invocation, which must observe the flushed page.
func (s *Store) Restore(ctx context.Context, index int) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if index <= 0 || index >= len(s.entries) {
		return fmt.Errorf("%w: index %d, page has %d entries", ErrNothingToRestore, index, len(s.entries))
	}

	e := s.entries[index]
	s.entries = slices.Delete(s.entries, index, index+1)
	s.state = StateMutated

	if err := s.Persist(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return s.deliver(ctx, e)
}

// Persist flushes the page to storage. An empty page is not written.
func (s *Store) Persist() error {
	switch s.state {
	case StateUnloaded:
		return ErrNotLoaded
	case StatePersisted:
		return nil
	}
	if len(s.entries) == 0 {
		slog.Debug("page empty, nothing to persist", "page", s.cfg.Page)
		s.state = StatePersisted
		return nil
	}
	if err := s.cfg.Storage.Write(encodePage(s.entries)); err != nil {
		return fmt.Errorf("write page %q: %w", s.cfg.Page, err)
	}
	s.state = StatePersisted
	return nil
}

func (s *Store) deliver(ctx context.Context, e *Entry) error {
	if s.cfg.Bridge == nil {
		return fmt.Errorf("%w: no clipboard bridge configured", ErrDelivery)
	}

	if e.deliverableAsLiteral() {
		slog.Debug("restoring entry", "page", s.cfg.Page, "mode", "literal", "size", e.Size())
		if err := s.cfg.Bridge.CopyLiteral(ctx, e.data); err != nil {
			return fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		return nil
	}

	if err := writeScratch(s.cfg.ScratchPath, e); err != nil {
		return err
	}
	slog.Debug("restoring entry", "page", s.cfg.Page, "mode", "file", "size", e.Size(), "path", s.cfg.ScratchPath)
	err := s.cfg.Bridge.CopyFromFile(ctx, s.cfg.ScratchPath)
	if s.cfg.RemoveScratch {
		if rmErr := os.Remove(s.cfg.ScratchPath); rmErr != nil {
			slog.Warn("scratch file not removed", "path", s.cfg.ScratchPath, "err", rmErr)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (s *Store) mutable() error {
	switch s.state {
	case StateUnloaded:
		return ErrNotLoaded
	case StatePersisted:
		return ErrPersisted
	}
	return nil
}

func writeScratch(path string, e *Entry) error {
	if path == "" {
		return errors.New("history: no scratch path configured")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open scratch file: %w", err)
	}
	if _, err := e.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close scratch file: %w", err)
	}
	return nil
}
