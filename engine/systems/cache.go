package systems

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

/**
 * @brief A thread-safe registry of completed resources. One mutex guards the
 * backing collection for every read and write; lookups are linear scans.
 */
type ResourceCache struct {
	mutex     sync.Mutex
	resources []*resources.Resource

	events *core.EventSystem
}

func NewResourceCache(events *core.EventSystem) *ResourceCache {
	return &ResourceCache{
		events: events,
	}
}

// Add appends a resource unconditionally. Duplicate-path policing happens in
// the loader system before this point; this call is a trust boundary.
func (rc *ResourceCache) Add(resource *resources.Resource) {
	resource.Retain()

	rc.mutex.Lock()
	rc.resources = append(rc.resources, resource)
	rc.mutex.Unlock()

	core.LogDebug("cache: added resource %s ('%s')", resource.ID(), resource.Filepath())
}

// GetResource returns the cached resource with the given id, or nil.
func (rc *ResourceCache) GetResource(id uuid.UUID) *resources.Resource {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	for _, r := range rc.resources {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// GetResourceID returns the id of the cached resource with the given exact
// path, or uuid.Nil when absent. Paths are not canonicalized.
func (rc *ResourceCache) GetResourceID(path string) uuid.UUID {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	for _, r := range rc.resources {
		if r.Filepath() == path {
			return r.ID()
		}
	}
	return uuid.Nil
}

// Remove erases the resource with the given id and dispatches an Unloaded
// notification. Removal does not guarantee destruction: other holders may
// keep the resource alive after it leaves the cache.
func (rc *ResourceCache) Remove(id uuid.UUID) error {
	rc.mutex.Lock()
	var removed *resources.Resource
	for i, r := range rc.resources {
		if r.ID() == id {
			removed = r
			rc.resources = append(rc.resources[:i], rc.resources[i+1:]...)
			break
		}
	}
	rc.mutex.Unlock()

	if removed == nil {
		return core.ErrNotFound
	}

	// Informational only; removal proceeds regardless of live holders.
	core.LogInfo("cache: removing resource %s ('%s') with %d external references",
		removed.ID(), removed.Filepath(), removed.RefCount()-1)

	// Fired outside the lock so listeners may re-enter the cache.
	if rc.events != nil {
		rc.events.Fire(core.EVENT_CODE_RESOURCE_UNLOADED, rc, core.EventContext{
			ResourceID: removed.ID(),
			Filepath:   removed.Filepath(),
			Data:       removed,
		})
	}
	removed.Release()
	return nil
}

// Purge clears the whole collection. Bulk operation: no per-item
// notifications are emitted.
func (rc *ResourceCache) Purge() {
	rc.mutex.Lock()
	purged := rc.resources
	rc.resources = nil
	rc.mutex.Unlock()

	for _, r := range purged {
		r.Release()
	}
	core.LogInfo("cache: purged %d resources", len(purged))
}

// Count returns the number of cached resources.
func (rc *ResourceCache) Count() int {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	return len(rc.resources)
}

// Dump logs every cached entry. Diagnostic only; mutates nothing.
func (rc *ResourceCache) Dump() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	core.LogInfo("cache: %d resources", len(rc.resources))
	for _, r := range rc.resources {
		core.LogInfo("  id=%s type=%s path='%s' refs=%d",
			r.ID(), r.MediaType().Typename(), r.Filepath(), r.RefCount())
	}
}
