package systems

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/platform"
	"github.com/spaghettifunk/forge/engine/resources"
	"github.com/spaghettifunk/forge/engine/resources/loaders"
)

/** @brief The configuration for the loader system. */
type LoaderSystemConfig struct {
	/** @brief The initial worker pool size. Zero coerces to one. */
	WorkerCount uint32
}

// pendingLoad is a (task, resource) pair travelling from the staging list to
// the shared task queue. A resource sits in at most one of the two at a time.
type pendingLoad struct {
	task     loaders.LoadFunc
	resource *resources.Resource
}

type externalTypeLoader struct {
	id     uuid.UUID
	loader loaders.TypeLoader
}

/**
 * @brief The orchestration core. Accepts load requests, deduplicates them,
 * routes them to the first capable type loader, stages the resulting tasks
 * and feeds them to a dynamically sized worker pool through a dedicated
 * coordinator goroutine. Completed resources land in the cache.
 */
type LoaderSystem struct {
	cache  *ResourceCache
	events *core.EventSystem

	// Built-ins are fixed at construction; externals are guarded by loaderMutex.
	builtin     []loaders.TypeLoader
	loaderMutex sync.RWMutex
	external    []externalTypeLoader

	stagingMutex sync.Mutex
	staging      []pendingLoad

	queueMutex sync.Mutex
	queueCond  *sync.Cond
	queue      *containers.RingQueue[pendingLoad]

	wake *platform.Event
	stop atomic.Bool

	maxWorkers atomic.Int32
	running    atomic.Int32

	coordinatorWG sync.WaitGroup
	workerWG      sync.WaitGroup
	shutdownOnce  sync.Once
}

func NewLoaderSystem(cache *ResourceCache, events *core.EventSystem, config LoaderSystemConfig) (*LoaderSystem, error) {
	wake, err := platform.NewEvent()
	if err != nil {
		// Without the wake event the coordinator must not start.
		core.LogError("failed to create loader wake event: %v", err)
		return nil, err
	}

	ls := &LoaderSystem{
		cache:  cache,
		events: events,
		wake:   wake,
		queue:  containers.NewRingQueue[pendingLoad](64),
	}
	ls.queueCond = sync.NewCond(&ls.queueMutex)

	// Built-in type loaders, in match order.
	ls.builtin = []loaders.TypeLoader{
		loaders.NewImageLoader(events),
		loaders.NewFontLoader(events),
		loaders.NewBitmapFontLoader(events),
		loaders.NewAudioLoader(events),
		loaders.NewTextLoader(events),
	}

	ls.SetWorkerCount(config.WorkerCount)

	ls.coordinatorWG.Add(1)
	go ls.coordinate()

	core.LogInfo("loader system initialized with %d workers", ls.maxWorkers.Load())
	return ls, nil
}

/**
 * @brief Accepts a resource for asynchronous loading. Never blocks on the
 * load itself; callers observe completion through the cache or through
 * resource state notifications.
 */
func (ls *LoaderSystem) AddResource(resource *resources.Resource) error {
	path := resource.Filepath()
	if path != "" && ls.isTracked(path) {
		core.LogWarn("resource with path '%s' already exists", path)
		return core.ErrAlreadyExists
	}

	if resource.MediaType() == resources.MediaTypeUndefined {
		inferred := resources.MediaTypeFromPath(path)
		if inferred == resources.MediaTypeUndefined {
			core.LogWarn("could not infer media type for '%s'", path)
			ls.notifyInvalid(resource)
			return core.ErrFailed
		}
		if err := resource.ResolveMediaType(inferred); err != nil {
			ls.notifyInvalid(resource)
			return core.ErrFailed
		}
	}

	loader := ls.findTypeLoader(resource.MediaType())
	if loader == nil {
		core.LogWarn("no type loader handles media type %s", resource.MediaType().Typename())
		return core.ErrNotFound
	}

	task, err := loader.LoadFunction(resource)
	if err != nil || task == nil {
		core.LogWarn("type loader for %s failed to produce a task: %v", resource.MediaType().Typename(), err)
		return core.ErrFault
	}

	// Check-and-append under the staging lock so two concurrent submissions
	// of the same path cannot both pass the duplicate check.
	ls.stagingMutex.Lock()
	if path != "" && ls.stagedOrQueued(path) {
		ls.stagingMutex.Unlock()
		core.LogWarn("resource with path '%s' already exists", path)
		return core.ErrAlreadyExists
	}
	ls.staging = append(ls.staging, pendingLoad{task: task, resource: resource})
	ls.stagingMutex.Unlock()

	return nil
}

// Sync wakes the coordinator. Used both for "new work available" and as part
// of the shutdown handshake. Non-blocking.
func (ls *LoaderSystem) Sync() {
	ls.wake.Set()
}

// Stop prevents further work from being claimed and wakes the coordinator.
// In-flight loads run to completion.
func (ls *LoaderSystem) Stop() {
	ls.stop.Store(true)
	ls.Sync()
}

// isTracked reports whether the exact path is cached, staged or queued.
func (ls *LoaderSystem) isTracked(path string) bool {
	if ls.cache.GetResourceID(path) != uuid.Nil {
		return true
	}
	ls.stagingMutex.Lock()
	defer ls.stagingMutex.Unlock()
	return ls.stagedOrQueued(path)
}

// stagedOrQueued must be called with stagingMutex held.
func (ls *LoaderSystem) stagedOrQueued(path string) bool {
	for _, p := range ls.staging {
		if p.resource.Filepath() == path {
			return true
		}
	}
	found := false
	ls.queueMutex.Lock()
	ls.queue.Each(func(p pendingLoad) bool {
		if p.resource.Filepath() == path {
			found = true
			return false
		}
		return true
	})
	ls.queueMutex.Unlock()
	return found
}

func (ls *LoaderSystem) findTypeLoader(mediaType resources.MediaType) loaders.TypeLoader {
	// Built-ins first, then externals, both in registration order.
	for _, l := range ls.builtin {
		if l.HandlesMediaType(mediaType) {
			return l
		}
	}
	ls.loaderMutex.RLock()
	defer ls.loaderMutex.RUnlock()
	for _, e := range ls.external {
		if e.loader.HandlesMediaType(mediaType) {
			return e.loader
		}
	}
	return nil
}

// AddExternalTypeLoader registers a type loader outside the built-in set and
// returns the handle used to remove it later.
func (ls *LoaderSystem) AddExternalTypeLoader(loader loaders.TypeLoader) uuid.UUID {
	id := uuid.New()
	ls.loaderMutex.Lock()
	ls.external = append(ls.external, externalTypeLoader{id: id, loader: loader})
	ls.loaderMutex.Unlock()
	core.LogDebug("external type loader %s registered", id)
	return id
}

func (ls *LoaderSystem) RemoveExternalTypeLoader(id uuid.UUID) error {
	ls.loaderMutex.Lock()
	defer ls.loaderMutex.Unlock()
	for i, e := range ls.external {
		if e.id == id {
			ls.external = append(ls.external[:i], ls.external[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

/**
 * @brief Resizes the worker pool. Zero and the invalid-id sentinel coerce to
 * one. Growth spawns workers immediately; shrink is cooperative: surplus
 * workers retire on the next queue broadcast.
 */
func (ls *LoaderSystem) SetWorkerCount(count uint32) {
	if count == 0 || count == loaders.InvalidID {
		count = 1
	}
	ls.maxWorkers.Store(int32(count))
	for ls.running.Load() < int32(count) && !ls.stop.Load() {
		ls.spawnWorker()
	}
}

// SetWorkerCountFromString parses the count from a string. Invalid input is
// logged and ignored, leaving the pool unchanged.
func (ls *LoaderSystem) SetWorkerCountFromString(count string) {
	n, err := strconv.ParseUint(count, 10, 32)
	if err != nil {
		core.LogWarn("invalid worker count '%s': %v", count, err)
		return
	}
	ls.SetWorkerCount(uint32(n))
}

// WorkerCount returns the number of live workers.
func (ls *LoaderSystem) WorkerCount() int32 {
	return ls.running.Load()
}

/**
 * @brief Shuts the loader system down: stop flag, wake the coordinator (which
 * broadcasts the workers), join the coordinator, discard anything still
 * staged, join the workers, destroy the wake event, clear the registries.
 * The order matters; reordering risks waking a destroyed event or blocking
 * forever. Idempotent.
 */
func (ls *LoaderSystem) Shutdown() error {
	ls.shutdownOnce.Do(func() {
		ls.Stop()
		ls.coordinatorWG.Wait()

		ls.stagingMutex.Lock()
		discarded := len(ls.staging)
		ls.staging = nil
		ls.stagingMutex.Unlock()
		if discarded > 0 {
			core.LogWarn("loader shutdown discarded %d staged tasks", discarded)
		}

		ls.queueCond.Broadcast()
		ls.workerWG.Wait()

		ls.wake.Destroy()

		ls.loaderMutex.Lock()
		ls.builtin = nil
		ls.external = nil
		ls.loaderMutex.Unlock()

		core.LogInfo("loader system shut down")
	})
	return nil
}

// coordinate is the single long-lived goroutine moving staged work into the
// shared task queue and signaling the pool.
func (ls *LoaderSystem) coordinate() {
	defer ls.coordinatorWG.Done()

	for {
		// Lazily make sure at least one worker is alive.
		if ls.running.Load() == 0 && !ls.stop.Load() {
			ls.spawnWorker()
		}

		ls.wake.Wait()

		if ls.stop.Load() {
			// Wake every worker so they can observe the stop flag. No
			// further draining happens.
			ls.queueCond.Broadcast()
			return
		}

		// Move everything staged into the task queue. Both locks are held so
		// a resource is never momentarily untracked between the two queues.
		ls.stagingMutex.Lock()
		ls.queueMutex.Lock()
		for _, p := range ls.staging {
			ls.queue.Enqueue(p)
		}
		moved := len(ls.staging)
		ls.staging = nil
		ls.queueMutex.Unlock()
		ls.stagingMutex.Unlock()

		if moved > 0 {
			core.LogDebug("coordinator queued %d load tasks", moved)
			ls.queueCond.Broadcast()
		}
	}
}

func (ls *LoaderSystem) spawnWorker() {
	ordinal := ls.running.Add(1)
	ls.workerWG.Add(1)
	go ls.worker(ordinal)
}

// worker claims tasks from the shared queue until told to stop or until its
// ordinal exceeds the pool size (cooperative shrink).
func (ls *LoaderSystem) worker(ordinal int32) {
	defer ls.workerWG.Done()
	core.LogDebug("load worker %d started", ordinal)

	for {
		ls.queueMutex.Lock()
		for ls.queue.IsEmpty() && !ls.stop.Load() && ordinal <= ls.maxWorkers.Load() {
			ls.queueCond.Wait()
		}
		if ls.stop.Load() {
			ls.queueMutex.Unlock()
			ls.running.Add(-1)
			core.LogDebug("load worker %d stopping", ordinal)
			return
		}
		if ordinal > ls.maxWorkers.Load() {
			// This worker is surplus after a pool shrink.
			ls.queueMutex.Unlock()
			ls.running.Add(-1)
			core.LogDebug("load worker %d retiring", ordinal)
			return
		}
		p, err := ls.queue.Dequeue()
		ls.queueMutex.Unlock()
		if err != nil {
			continue
		}

		ls.execute(p)
	}
}

// execute runs one load task. A failure or panic drops the resource; it is
// never added to the cache and never retried automatically.
func (ls *LoaderSystem) execute(p pendingLoad) {
	defer func() {
		if rec := recover(); rec != nil {
			core.LogError("load task for '%s' panicked: %v", p.resource.Filepath(), rec)
			ls.notifyFailed(p.resource)
		}
	}()

	if err := p.task(); err != nil {
		core.LogWarn("load task for '%s' failed: %v", p.resource.Filepath(), err)
		return
	}
	ls.cache.Add(p.resource)
}

func (ls *LoaderSystem) notifyInvalid(r *resources.Resource) {
	if ls.events == nil {
		return
	}
	ls.events.Fire(core.EVENT_CODE_RESOURCE_INVALID, ls, core.EventContext{
		ResourceID: r.ID(),
		Filepath:   r.Filepath(),
		Data:       r,
	})
}

func (ls *LoaderSystem) notifyFailed(r *resources.Resource) {
	if ls.events == nil {
		return
	}
	ls.events.Fire(core.EVENT_CODE_RESOURCE_FAILED, ls, core.EventContext{
		ResourceID: r.ID(),
		Filepath:   r.Filepath(),
		Data:       r,
	})
}
