// Package todo holds the todo list state and the rules for changing it.
//
// A Store is built once at startup, hydrated from a store.Slot, and then
// driven by the presentation layer. Every list mutation writes the whole
// list back to the slot; registered observers hear about every operation
// once it has settled.
package todo

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// DefaultKey is the slot key the list is persisted under.
const DefaultKey = "todos"

// EditCursor is the transient edit state. EditID is meaningful only while
// Editing is true. It is never persisted.
type EditCursor struct {
	Editing bool
	EditID  int64
	Text    string
}

// Store is the todo list plus its transient edit state. It is safe for
// concurrent use.
type Store struct {
	mu     sync.Mutex
	slot   store.Slot
	key    string
	now    func() time.Time
	logger *log.Logger

	items      []model.Item
	cursor     EditCursor
	createErr  error
	editErr    error
	persistErr error
	lastID     int64

	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id  int
	obs Observer
}

// Option configures a Store.
type Option func(*Store)

// WithKey stores the list under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithClock overrides the clock used to mint ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for hydrate and persistence warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a store on top of slot and hydrates it.
func New(slot store.Slot, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		key:    DefaultKey,
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, o := range opts {
		o(s)
	}
	s.hydrate()
	return s
}

// hydrate replaces the list with whatever the slot holds. Missing or
// unreadable data yields an empty list.
func (s *Store) hydrate() {
	s.items = nil
	s.cursor = EditCursor{}
	s.createErr, s.editErr = nil, nil

	b, ok, err := s.slot.Get(s.key)
	switch {
	case err != nil:
		s.logger.Warn("hydrate: slot unreadable, starting empty", "key", s.key, "err", err)
		return
	case !ok:
		s.logger.Debug("hydrate: nothing stored", "key", s.key)
		return
	}
	items, err := decodeItems(b)
	if err != nil {
		s.logger.Warn("hydrate: stored list unparseable, starting empty", "key", s.key, "err", err)
		return
	}
	s.items = items
	s.lastID = maxID(items)
	s.logger.Debug("hydrate: loaded", "key", s.key, "items", len(items))
}

// Subscribe registers obs and returns a function that removes it.
func (s *Store) Subscribe(obs Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, obs: obs})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// finish releases the lock and then notifies observers.
func (s *Store) finish(ev Event) {
	obs := make([]Observer, 0, len(s.observers))
	for _, e := range s.observers {
		obs = append(obs, e.obs)
	}
	s.mu.Unlock()
	for _, o := range obs {
		o.StoreChanged(ev)
	}
}

// Create appends a new item holding the trimmed text.
func (s *Store) Create(rawText string) error {
	text := normalizeText(rawText)
	s.mu.Lock()
	if text == "" {
		err := &ValidationError{Kind: EmptyCreateText}
		s.createErr = err
		s.finish(Event{Op: OpCreate, Err: err})
		return err
	}
	s.createErr = nil
	it := model.Item{ID: s.mintID(), Text: text}
	s.items = append(s.items, it)
	perr := s.persistLocked()
	s.finish(Event{Op: OpCreate, ID: it.ID, Changed: true, Err: perr})
	return nil
}

// Toggle flips the completion flag of id. Unknown ids are ignored.
func (s *Store) Toggle(id int64) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.finish(Event{Op: OpToggle, ID: id})
		return
	}
	s.items[i].Completed = !s.items[i].Completed
	perr := s.persistLocked()
	s.finish(Event{Op: OpToggle, ID: id, Changed: true, Err: perr})
}

// StartEdit puts the cursor on id with currentText in the buffer.
// Unknown ids are ignored.
func (s *Store) StartEdit(id int64, currentText string) {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.finish(Event{Op: OpStartEdit, ID: id})
		return
	}
	s.cursor = EditCursor{Editing: true, EditID: id, Text: currentText}
	s.editErr = nil
	s.finish(Event{Op: OpStartEdit, ID: id})
}

// SetEditText replaces the edit buffer.
func (s *Store) SetEditText(text string) {
	s.mu.Lock()
	s.cursor.Text = text
	s.finish(Event{Op: OpSetText, ID: s.cursor.EditID})
}

// CancelEdit leaves edit mode and resets the buffer to currentText.
func (s *Store) CancelEdit(currentText string) {
	s.mu.Lock()
	id := s.cursor.EditID
	s.cursor = EditCursor{Text: currentText}
	s.editErr = nil
	s.finish(Event{Op: OpCancelEdit, ID: id})
}

// SaveEdit commits the trimmed buffer as the text of id. On an empty
// buffer the store stays in edit mode and the error is kept in EditError.
func (s *Store) SaveEdit(id int64) error {
	s.mu.Lock()
	text := normalizeText(s.cursor.Text)
	if text == "" {
		err := &ValidationError{Kind: EmptyEditText}
		s.editErr = err
		s.finish(Event{Op: OpSaveEdit, ID: id, Err: err})
		return err
	}
	s.cursor = EditCursor{}
	s.createErr, s.editErr = nil, nil

	i := s.indexOf(id)
	if i < 0 {
		s.finish(Event{Op: OpSaveEdit, ID: id})
		return nil
	}
	s.items[i].Text = text
	perr := s.persistLocked()
	s.finish(Event{Op: OpSaveEdit, ID: id, Changed: true, Err: perr})
	return nil
}

// Delete removes id, keeping the order of the rest. Unknown ids are ignored.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.finish(Event{Op: OpDelete, ID: id})
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	perr := s.persistLocked()
	s.finish(Event{Op: OpDelete, ID: id, Changed: true, Err: perr})
}

// Items returns a copy of the list.
func (s *Store) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item{}, s.items...)
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Find returns the item with id, if present.
func (s *Store) Find(id int64) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return model.Item{}, false
}

// Cursor returns a copy of the edit state.
func (s *Store) Cursor() EditCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// CreateError is the last rejected Create, cleared by a successful one.
func (s *Store) CreateError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createErr
}

// EditError is the last rejected SaveEdit.
func (s *Store) EditError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editErr
}

// PersistError is the last failed write, nil once a write succeeds.
func (s *Store) PersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Key is the slot key the list is persisted under.
func (s *Store) Key() string { return s.key }

// Export returns the list in its persisted form.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeItems(s.items)
}

// Import replaces the whole list with data, resets the edit state and
// persists the result. Data that fails CheckDocument is rejected and the
// list is left alone.
func (s *Store) Import(data []byte) error {
	if res := CheckDocument(data); !res.Valid() {
		return &ImportError{Problems: res.Problems}
	}
	items, err := decodeItems(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	if m := maxID(items); m > s.lastID {
		s.lastID = m
	}
	s.cursor = EditCursor{}
	s.createErr, s.editErr = nil, nil
	perr := s.persistLocked()
	s.finish(Event{Op: OpImport, Changed: true, Err: perr})
	return nil
}

// mintID returns the current time in milliseconds, bumped past the last
// id handed out so ids stay strictly increasing.
func (s *Store) mintID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		if s.lastID == math.MaxInt64 {
			return s.freeIDLocked(id)
		}
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// freeIDLocked walks down from start to the first id not in the list.
// Used only once an id of math.MaxInt64 leaves no room above.
func (s *Store) freeIDLocked(start int64) int64 {
	used := make(map[int64]struct{}, len(s.items))
	for _, it := range s.items {
		used[it.ID] = struct{}{}
	}
	id := start
	for {
		if _, taken := used[id]; !taken {
			return id
		}
		id--
	}
}

// normalizeText trims surrounding space and replaces invalid UTF-8, so the
// text held in memory is exactly what a JSON round-trip gives back.
func normalizeText(raw string) string {
	return strings.ToValidUTF8(strings.TrimSpace(raw), "\uFFFD")
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(it model.Item) bool { return it.ID == id })
}

// persistLocked writes the full list. Failures are logged and kept in
// persistErr; the in-memory change stands either way.
func (s *Store) persistLocked() error {
	b, err := encodeItems(s.items)
	if err == nil {
		err = s.slot.Put(s.key, b)
	}
	if err != nil {
		s.persistErr = fmt.Errorf("persist %q: %w", s.key, err)
		s.logger.Warn("persist failed, change kept in memory only", "key", s.key, "err", err)
		return s.persistErr
	}
	s.persistErr = nil
	return nil
}

func encodeItems(items []model.Item) ([]byte, error) {
	if items == nil {
		items = []model.Item{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

func decodeItems(b []byte) ([]model.Item, error) {
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func maxID(items []model.Item) int64 {
	var m int64
	for _, it := range items {
		if it.ID > m {
			m = it.ID
		}
	}
	return m
}
