// Package localstore is a directory-backed key/value store for small
// client-owned snapshots. Each key is one JSON file. Writers in other
// processes are observed through filesystem notifications.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
	ErrClosed     = errors.New("store closed")
)

const (
	fileExt    = ".json"
	tempPrefix = ".tmp-"
)

var segmentRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type Store struct {
	dir string
	log *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	// watchOf maps a subscribed file to the directory watched on its
	// behalf: its own directory, or the nearest existing ancestor until
	// that directory is created. refs counts files per watched directory.
	watchOf map[string]string
	refs    map[string]int
	subs    map[string]map[int]func()
	nextSub int
	running bool
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create dir: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("localstore: watcher: %w", err)
	}

	return &Store{
		dir:     abs,
		log:     log,
		watcher: w,
		watchOf: make(map[string]string),
		refs:    make(map[string]int),
		subs:    make(map[string]map[int]func()),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." || !segmentRe.MatchString(seg) || strings.HasPrefix(seg, tempPrefix) {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)) + fileExt, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the value atomically: readers see either the old or the new
// file, never a partial write.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("localstore: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("localstore: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localstore: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localstore: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localstore: close %s: %w", key, err)
	}

	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localstore: rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localstore: delete %s: %w", key, err)
	}
	return nil
}

// Subscribe registers fn to be called whenever the file behind key is
// created, written, renamed or removed, by this or any other process.
// Callbacks run on the watcher goroutine and must not block. Subscribing
// creates nothing on disk, and the returned func releases the watch once the
// last subscriber of a key is gone.
func (s *Store) Subscribe(key string, fn func()) (func(), error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	if len(s.subs[p]) == 0 {
		if err := s.attachLocked(p); err != nil {
			return nil, err
		}
		s.subs[p] = make(map[int]func())
	}

	id := s.nextSub
	s.nextSub++
	s.subs[p][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[p], id)
			if len(s.subs[p]) == 0 {
				delete(s.subs, p)
				s.detachLocked(p)
			}
		})
	}, nil
}

// nearestDir returns dir if it exists, otherwise its closest existing
// ancestor inside the store root.
func (s *Store) nearestDir(dir string) string {
	for d := dir; d != s.dir && strings.HasPrefix(d, s.dir); d = filepath.Dir(d) {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			return d
		}
	}
	return s.dir
}

func (s *Store) attachLocked(p string) error {
	target := s.nearestDir(filepath.Dir(p))
	if err := s.watchLocked(target); err != nil {
		return err
	}
	s.watchOf[p] = target
	return nil
}

func (s *Store) detachLocked(p string) {
	if target, ok := s.watchOf[p]; ok {
		delete(s.watchOf, p)
		s.unwatchLocked(target)
	}
}

func (s *Store) watchLocked(dir string) error {
	if s.refs[dir] == 0 {
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("localstore: watch %s: %w", dir, err)
		}
	}
	s.refs[dir]++
	return nil
}

func (s *Store) unwatchLocked(dir string) {
	s.refs[dir]--
	if s.refs[dir] > 0 {
		return
	}
	delete(s.refs, dir)
	// the directory may already be gone, which drops the watch anyway
	_ = s.watcher.Remove(dir)
}

// rewatchLocked moves files waiting on an ancestor of created closer to
// their own directories. It returns the callbacks of files that already
// exist, since they may have been written before the new watch was in place.
func (s *Store) rewatchLocked(created string) []func() {
	var fns []func()
	for p, old := range s.watchOf {
		d := filepath.Dir(p)
		if old == d || (d != created && !strings.HasPrefix(d, created+string(filepath.Separator))) {
			continue
		}

		target := s.nearestDir(d)
		if target == old {
			continue
		}
		if err := s.watchLocked(target); err != nil {
			s.log.Warn("localstore rewatch failed", slog.String("dir", target), slog.Any("err", err))
			continue
		}
		s.watchOf[p] = target
		s.unwatchLocked(old)

		if _, err := os.Stat(p); err == nil {
			for _, fn := range s.subs[p] {
				fns = append(fns, fn)
			}
		}
	}
	return fns
}

// Start launches the notification loop. It returns immediately; the loop
// ends when ctx is cancelled or Close is called.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}
	s.running = true

	go s.run(ctx)
	return nil
}

func (s *Store) run(ctx context.Context) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.dispatch(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("localstore watcher error", slog.Any("err", err))
		}
	}
}

func (s *Store) dispatch(ev fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(ev.Name), tempPrefix) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	isDir := false
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			isDir = true
		}
	}

	s.mu.Lock()
	var fns []func()
	if isDir {
		fns = s.rewatchLocked(ev.Name)
	}
	for _, fn := range s.subs[ev.Name] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Close stops the notification loop and releases the watcher.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	running := s.running
	s.mu.Unlock()

	close(s.stopCh)
	if running {
		<-s.doneCh
	}
	return s.watcher.Close()
}
