package fragment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sync"
)

// Kind is one facet of a user's public profile. Each kind lives in its own
// directory under the store root.
type Kind int

const (
	Location Kind = iota
	Status
	Updates
	Name
)

var kinds = [...]struct {
	name, dir, ext string
}{
	Location: {"location", "embeds", ".html"},
	Status:   {"status", "status", ".html"},
	Updates:  {"updates", "updates", ".html"},
	Name:     {"name", "name", ".txt"},
}

// Kinds lists every fragment kind in display order.
func Kinds() []Kind { return []Kind{Location, Status, Updates, Name} }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// Dir is the directory the kind is stored in, e.g. "embeds".
func (k Kind) Dir() string { return kinds[k].dir }

// Ext is the file extension including the dot.
func (k Kind) Ext() string { return kinds[k].ext }

func (k Kind) valid() bool { return k >= 0 && int(k) < len(kinds) }

// KindByDir resolves a directory name back to its kind.
func KindByDir(dir string) (Kind, bool) {
	for _, k := range Kinds() {
		if kinds[k].dir == dir {
			return k, true
		}
	}
	return 0, false
}

// KindByName resolves the kind's String form.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if kinds[k].name == name {
			return k, true
		}
	}
	return 0, false
}

var (
	ErrNotFound  = errors.New("fragment not found")
	ErrInvalidID = errors.New("invalid fragment id")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id can be used as a file name in every namespace.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// Store keeps fragments as files below a root directory. There is no cache:
// every call goes to disk. Operations on the same (kind, id) are serialized.
type Store struct {
	root  string
	locks *keyedMutex
}

// NewStore returns a store rooted at dir. Directories are created lazily.
func NewStore(dir string) *Store {
	return &Store{root: dir, locks: newKeyedMutex()}
}

// Root returns the directory the store writes below.
func (s *Store) Root() string { return s.root }

// Path returns the slash separated path of the fragment relative to the
// root, suitable for appending to a public base URL.
func (s *Store) Path(kind Kind, id string) string {
	return path.Join(kind.Dir(), id+kind.Ext())
}

func (s *Store) file(kind Kind, id string) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown fragment kind %d", int(kind))
	}
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.root, kind.Dir(), id+kind.Ext()), nil
}

// Read returns the fragment content or ErrNotFound.
func (s *Store) Read(ctx context.Context, kind Kind, id string) (string, error) {
	name, err := s.file(kind, id)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	unlock := s.locks.lock(kind, id)
	defer unlock()
	return read(name)
}

// Write replaces the fragment with content.
func (s *Store) Write(ctx context.Context, kind Kind, id, content string) error {
	name, err := s.file(kind, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lock(kind, id)
	defer unlock()
	return write(name, content)
}

// Clear removes the fragment. It reports whether there was anything to
// remove; clearing an absent fragment is not an error.
func (s *Store) Clear(ctx context.Context, kind Kind, id string) (bool, error) {
	name, err := s.file(kind, id)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	unlock := s.locks.lock(kind, id)
	defer unlock()

	err = os.Remove(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove %s: %w", name, err)
	}
}

// Update reads the current content, passes it to fn and writes back what fn
// returns, all while holding the (kind, id) lock. exists is false when the
// fragment did not exist yet.
func (s *Store) Update(ctx context.Context, kind Kind, id string, fn func(old string, exists bool) (string, error)) error {
	name, err := s.file(kind, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lock(kind, id)
	defer unlock()

	old, err := read(name)
	exists := true
	if errors.Is(err, ErrNotFound) {
		exists, err = false, nil
	}
	if err != nil {
		return err
	}
	content, err := fn(old, exists)
	if err != nil {
		return err
	}
	return write(name, content)
}

func read(name string) (string, error) {
	b, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}

// write goes through a temp file in the target directory so readers never
// see a half written fragment.
func write(name, content string) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".fragment-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// keyedMutex hands out one mutex per (kind, id) and forgets it once nobody
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[lockKey]*refMutex
}

type lockKey struct {
	kind Kind
	id   string
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[lockKey]*refMutex)}
}

func (k *keyedMutex) lock(kind Kind, id string) func() {
	key := lockKey{kind, id}
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
