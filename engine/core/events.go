package core

import (
	"sync"

	"github.com/google/uuid"
)

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next cycle.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// A resource load task has started executing.
	/* Context usage:
	 * resource_id = data.ResourceID
	 * filepath    = data.Filepath
	 */
	EVENT_CODE_RESOURCE_LOADING SystemEventCode = 0x20

	// A resource finished loading and is ready for use.
	EVENT_CODE_RESOURCE_LOADED SystemEventCode = 0x21

	// A resource load task failed. The resource was dropped, not cached.
	EVENT_CODE_RESOURCE_FAILED SystemEventCode = 0x22

	// A load request was rejected before any task was queued.
	EVENT_CODE_RESOURCE_INVALID SystemEventCode = 0x23

	// A resource was removed from the cache. Other holders may keep the
	// underlying object alive.
	EVENT_CODE_RESOURCE_UNLOADED SystemEventCode = 0x24

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// EventContext carries the payload of a fired event. For resource state
// transitions the resource itself travels in Data so listeners can read
// accessors that are safe regardless of readiness.
type EventContext struct {
	ResourceID uuid.UUID
	Filepath   string
	Data       interface{}
}

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

// EventSystem dispatches fire-and-forget state notifications to registered
// listeners. It is safe for concurrent use; load workers fire into it from
// multiple goroutines.
type EventSystem struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return FALSE.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("event listener already registered for code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	events := es.registered[code]
	if len(events) == 0 {
		LogWarn("no event listeners registered for code %d", code)
		return false
	}
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mutex.RLock()
	events := make([]*registeredEvent, len(es.registered[code]))
	copy(events, es.registered[code])
	es.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	// Not handled.
	return false
}
