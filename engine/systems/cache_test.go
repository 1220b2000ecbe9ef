package systems_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
	"github.com/spaghettifunk/forge/engine/systems"
)

func TestCacheAddAndLookup(t *testing.T) {
	cache := systems.NewResourceCache(core.NewEventSystem())

	r := resources.NewFromFile("a.png", resources.MediaTypeImagePNG)
	cache.Add(r)

	if got := cache.GetResource(r.ID()); got != r {
		t.Error("lookup by id failed")
	}
	if id := cache.GetResourceID("a.png"); id != r.ID() {
		t.Error("lookup by path failed")
	}
	if id := cache.GetResourceID("missing.png"); id != uuid.Nil {
		t.Error("missing path should return the nil id")
	}
	if cache.Count() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Count())
	}
	if r.RefCount() != 1 {
		t.Errorf("cache should hold one reference, refs=%d", r.RefCount())
	}
}

func TestCachePathsAreNotCanonicalized(t *testing.T) {
	cache := systems.NewResourceCache(core.NewEventSystem())
	cache.Add(resources.NewFromFile("dir/a.png", resources.MediaTypeImagePNG))

	// A different spelling of the same file is a different resource.
	if id := cache.GetResourceID("./dir/a.png"); id != uuid.Nil {
		t.Error("paths must be compared by exact string equality")
	}
}

func TestCacheRemove(t *testing.T) {
	events := core.NewEventSystem()
	cache := systems.NewResourceCache(events)

	var unloaded []uuid.UUID
	var mutex sync.Mutex
	events.Register(core.EVENT_CODE_RESOURCE_UNLOADED, &struct{}{},
		func(code core.SystemEventCode, sender, l interface{}, data core.EventContext) bool {
			mutex.Lock()
			unloaded = append(unloaded, data.ResourceID)
			mutex.Unlock()
			return false
		})

	r := resources.NewFromFile("b.ttf", resources.MediaTypeFontTTF)
	r.Retain() // external holder
	cache.Add(r)

	if err := cache.Remove(r.ID()); err != nil {
		t.Fatal(err)
	}
	if cache.Count() != 0 {
		t.Error("entry still cached after remove")
	}
	if len(unloaded) != 1 || unloaded[0] != r.ID() {
		t.Error("missing unloaded notification")
	}
	// Removal does not guarantee destruction; the external holder remains.
	if r.RefCount() != 1 {
		t.Errorf("external reference dropped by remove, refs=%d", r.RefCount())
	}

	if err := cache.Remove(r.ID()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestCachePurge(t *testing.T) {
	events := core.NewEventSystem()
	cache := systems.NewResourceCache(events)

	fired := 0
	events.Register(core.EVENT_CODE_RESOURCE_UNLOADED, &struct{}{},
		func(code core.SystemEventCode, sender, l interface{}, data core.EventContext) bool {
			fired++
			return false
		})

	for i := 0; i < 5; i++ {
		cache.Add(resources.New(resources.MediaTypeTextXML))
	}
	cache.Purge()

	if cache.Count() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Count())
	}
	// Bulk operation: no per-item notifications.
	if fired != 0 {
		t.Errorf("purge emitted %d notifications", fired)
	}
}

func TestCacheDumpDoesNotMutate(t *testing.T) {
	cache := systems.NewResourceCache(core.NewEventSystem())
	cache.Add(resources.NewFromFile("a.xml", resources.MediaTypeTextXML))
	cache.Add(resources.NewFromFile("b.xml", resources.MediaTypeTextXML))

	cache.Dump()

	if cache.Count() != 2 {
		t.Errorf("dump changed the cache, count=%d", cache.Count())
	}
}
