package handler

import (
	"bufio"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Allowlist is the set of admin usernames, loaded from a line-delimited
// file and reloaded live on change. Lookups read an atomic snapshot;
// reloads publish a fresh map, so readers never see a partial list.
type Allowlist struct {
	path    string
	names   atomic.Pointer[map[string]struct{}]
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewAllowlist loads path and starts watching it. A missing file is an
// empty allowlist, not an error; it may appear later.
func NewAllowlist(path string, log *zap.Logger) (*Allowlist, error) {
	a := &Allowlist{path: path, log: log.Named("allowlist")}
	a.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	a.watcher = watcher
	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	dir := "."
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		dir = path[:idx]
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	go a.watch()
	return a, nil
}

func (a *Allowlist) watch() {
	for {
		select {
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if ev.Name == a.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				a.reload()
			}
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.log.Warn("allowlist watch error", zap.Error(err))
		}
	}
}

func (a *Allowlist) reload() {
	names := make(map[string]struct{})
	f, err := os.Open(a.path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			name := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if name != "" && !strings.HasPrefix(name, "#") {
				names[name] = struct{}{}
			}
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		a.log.Warn("read allowlist", zap.Error(err))
	}
	a.names.Store(&names)
	a.log.Info("admin allowlist loaded", zap.Int("admins", len(names)))
}

// IsAdmin reports whether username is allowlisted, case-insensitive.
func (a *Allowlist) IsAdmin(username string) bool {
	names := a.names.Load()
	if names == nil {
		return false
	}
	_, ok := (*names)[strings.ToLower(username)]
	return ok
}

// Close stops the watcher.
func (a *Allowlist) Close() error {
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}
