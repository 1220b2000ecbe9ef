package loaders

import (
	"strings"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

const (
	InvalidIDUint64 uint64 = 18446744073709551615
	InvalidID       uint32 = 4294967295
	InvalidIDUint16 uint16 = 65535
	InvalidIDUint8  uint8  = 255
)

// LoadFunc performs one load when invoked and reports the outcome. Building
// one never blocks; the work happens on a pool worker.
type LoadFunc func() error

/** @brief The contract every registered type loader satisfies. */
type TypeLoader interface {
	/** @brief Reports whether this loader accepts the given file extension. */
	HandlesFiletype(extension string) bool
	/** @brief Reports whether this loader accepts the given MIME-like typename. */
	HandlesMediaTypename(name string) bool
	/** @brief Reports whether this loader accepts the given media type. */
	HandlesMediaType(mediaType resources.MediaType) bool
	/** @brief Packages the load of the given resource into a callable task. */
	LoadFunction(resource *resources.Resource) (LoadFunc, error)
}

// TypeLoaderBase carries the declared capability sets and the notification
// plumbing shared by all concrete loaders.
type TypeLoaderBase struct {
	Filetypes      []string
	MediaTypenames []string
	MediaTypes     []resources.MediaType

	Events *core.EventSystem
}

func (b *TypeLoaderBase) HandlesFiletype(extension string) bool {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	for _, ft := range b.Filetypes {
		if ft == ext {
			return true
		}
	}
	return false
}

func (b *TypeLoaderBase) HandlesMediaTypename(name string) bool {
	for _, n := range b.MediaTypenames {
		if n == name {
			return true
		}
	}
	return false
}

func (b *TypeLoaderBase) HandlesMediaType(mediaType resources.MediaType) bool {
	for _, mt := range b.MediaTypes {
		if mt == mediaType {
			return true
		}
	}
	return false
}

func (b *TypeLoaderBase) notifyLoading(r *resources.Resource) {
	b.notify(core.EVENT_CODE_RESOURCE_LOADING, r)
}

func (b *TypeLoaderBase) notifyReady(r *resources.Resource) {
	b.notify(core.EVENT_CODE_RESOURCE_LOADED, r)
}

func (b *TypeLoaderBase) notifyFailed(r *resources.Resource) {
	b.notify(core.EVENT_CODE_RESOURCE_FAILED, r)
}

func (b *TypeLoaderBase) notify(code core.SystemEventCode, r *resources.Resource) {
	if b.Events == nil {
		return
	}
	b.Events.Fire(code, b, core.EventContext{
		ResourceID: r.ID(),
		Filepath:   r.Filepath(),
		Data:       r,
	})
}
