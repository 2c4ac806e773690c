// Package scripts loads autonomous scripts from a directory and keeps them
// current as the files change.
package scripts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Ext is the script file extension.
const Ext = ".auto"

// ErrNotFound is returned for a script that does not exist in the library.
var ErrNotFound = errors.New("script not found")

// Library caches script lines by name. A cached script is dropped when its
// file changes, so the next Load reads the new content.
type Library struct {
	dir string

	mu    sync.RWMutex
	cache map[string][]string
}

func NewLibrary(dir string) *Library {
	return &Library{
		dir:   dir,
		cache: make(map[string][]string),
	}
}

// Dir is the directory scripts are read from.
func (l *Library) Dir() string { return l.dir }

// Names lists the scripts in the directory, sorted.
func (l *Library) Names() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Load returns the lines of a script. name may omit the extension.
func (l *Library) Load(name string) ([]string, error) {
	name = normalize(name)

	l.mu.RLock()
	lines, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return lines, nil
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	lines, err = SplitLines(data)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = lines
	l.mu.Unlock()
	return lines, nil
}

// Open returns a line source positioned at the first line of a script.
func (l *Library) Open(name string) (*Source, error) {
	lines, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	return NewSource(lines), nil
}

// Invalidate drops a cached script.
func (l *Library) Invalidate(name string) {
	l.mu.Lock()
	delete(l.cache, normalize(name))
	l.mu.Unlock()
}

// Watch invalidates cached scripts as their files change, until ctx is done.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create script watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}
	log.Info("Watching scripts", "dir", l.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if filepath.Ext(name) != Ext || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			l.Invalidate(name)
			log.Info("Script changed", "name", name, "op", event.Op.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Script watcher error", "dir", l.dir)
		}
	}
}

func normalize(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) != Ext {
		name += Ext
	}
	return name
}

// SplitLines splits script text into lines without their line endings.
func SplitLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}
