package assets

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
	"github.com/spaghettifunk/forge/engine/systems"
)

// AssetWatcher watches an asset directory tree and keeps the resource cache
// in sync with it: new or modified files are (re)submitted to the loader,
// deleted files are evicted from the cache.
type AssetWatcher struct {
	loader *systems.LoaderSystem
	cache  *systems.ResourceCache

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetWatcher(loader *systems.LoaderSystem, cache *systems.ResourceCache) (*AssetWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetWatcher{
		loader:   loader,
		cache:    cache,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Initialize starts watching the named directory and all sub-directories and
// submits every supported file already present.
func (aw *AssetWatcher) Initialize(assetsDir string) error {
	if aw.isClosed {
		return errors.New("asset watcher already closed")
	}

	go aw.start()

	return aw.watchRecursive(assetsDir)
}

func (aw *AssetWatcher) start() {
	for {
		select {

		case e := <-aw.fsnotify.Events:
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					aw.watchRecursive(e.Name)
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				aw.submit(e.Name)
			}
			// Can't stat a deleted file, so just try both: evict from the
			// cache and drop it from the watch list.
			if e.Op&fsnotify.Remove != 0 {
				aw.evict(e.Name)
				aw.fsnotify.Remove(e.Name)
			}

		case e := <-aw.fsnotify.Errors:
			if e != nil {
				core.LogError(e.Error())
			}

		case <-aw.done:
			aw.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and submits the files it finds on the way.
func (aw *AssetWatcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if err := aw.fsnotify.Add(walkPath); err != nil {
				return err
			}
		} else {
			aw.submit(walkPath)
		}
		return nil
	})
}

// submit (re)loads the file at path. An already-cached entry is removed
// first so a modified file replaces its stale payload.
func (aw *AssetWatcher) submit(path string) {
	if resources.MediaTypeFromPath(path) == resources.MediaTypeUndefined {
		return
	}

	if id := aw.cache.GetResourceID(path); id != uuid.Nil {
		if err := aw.cache.Remove(id); err != nil {
			core.LogWarn("failed to evict stale resource '%s': %v", path, err)
			return
		}
	}

	resource := resources.NewFromFile(path, resources.MediaTypeUndefined)
	if err := aw.loader.AddResource(resource); err != nil {
		core.LogWarn("failed to submit asset '%s': %v", path, err)
		return
	}
	aw.loader.Sync()
}

// evict removes any cached resource backed by the deleted file.
func (aw *AssetWatcher) evict(path string) {
	if id := aw.cache.GetResourceID(path); id != uuid.Nil {
		if err := aw.cache.Remove(id); err != nil && !errors.Is(err, core.ErrNotFound) {
			core.LogWarn("failed to evict deleted resource '%s': %v", path, err)
		}
	}
}

// Close stops the watcher. Safe to call once.
func (aw *AssetWatcher) Close() error {
	if aw.isClosed {
		return nil
	}
	aw.isClosed = true
	close(aw.done)
	return nil
}
