package resources

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/spaghettifunk/forge/engine/core"
)

/**
 * @brief A generic structure for a loadable resource. Type loaders populate
 * the payload and mark the resource ready; until then every payload accessor
 * panics with core.ErrNotReady.
 *
 * The identifier is process-unique only; it is never persisted across runs.
 */
type Resource struct {
	id        uuid.UUID
	mediaType MediaType
	filepath  string

	ready atomic.Bool
	refs  atomic.Int32

	payload Payload
}

// New creates a resource with a media type only. The path stays empty until
// the loader system fills it in.
func New(mediaType MediaType) *Resource {
	r := &Resource{
		id:        uuid.New(),
		mediaType: mediaType,
	}
	core.LogDebug("resource %s created (type=%s)", r.id, mediaType.Typename())
	return r
}

// NewFromFile creates a resource for the given source file.
func NewFromFile(path string, mediaType MediaType) *Resource {
	r := New(mediaType)
	r.filepath = path
	return r
}

func (r *Resource) ID() uuid.UUID {
	return r.id
}

func (r *Resource) MediaType() MediaType {
	return r.mediaType
}

func (r *Resource) Filepath() string {
	return r.filepath
}

// SetFilepath sets the source path once. Overwriting an already-set path is
// rejected with a warning, not an error.
func (r *Resource) SetFilepath(path string) {
	if r.filepath != "" {
		core.LogWarn("resource %s already has filepath '%s', ignoring '%s'", r.id, r.filepath, path)
		return
	}
	r.filepath = path
}

// ResolveMediaType transitions the media type from Undefined to a concrete
// value. Only the loader system's resolution step should call this; any
// second resolution is rejected.
func (r *Resource) ResolveMediaType(mt MediaType) error {
	if r.mediaType != MediaTypeUndefined {
		core.LogWarn("resource %s media type already resolved to %s", r.id, r.mediaType.Typename())
		return core.ErrFailed
	}
	if mt == MediaTypeUndefined {
		return core.ErrFailed
	}
	r.mediaType = mt
	return nil
}

func (r *Resource) IsReady() bool {
	return r.ready.Load()
}

// Publish stores the payload and marks the resource ready. Called exactly
// once by the owning type loader after every payload field is populated.
func (r *Resource) Publish(p Payload) {
	r.payload = p
	r.ready.Store(true)
}

// Retain adds an external reference and returns the new count.
func (r *Resource) Retain() int32 {
	return r.refs.Add(1)
}

// Release drops a reference and returns the new count. The object itself is
// reclaimed by the runtime once unreachable; the count exists so the cache
// can report external holders.
func (r *Resource) Release() int32 {
	n := r.refs.Add(-1)
	if n == 0 {
		core.LogDebug("resource %s released its last reference", r.id)
	}
	return n
}

func (r *Resource) RefCount() int32 {
	return r.refs.Load()
}

// Payload returns the format-specific data. Panics unless ready.
func (r *Resource) Payload() Payload {
	r.mustBeReady("Payload")
	return r.payload
}

// Image returns the image payload. Panics unless ready or if the payload is
// not an image.
func (r *Resource) Image() *ImagePayload {
	r.mustBeReady("Image")
	return r.payload.(*ImagePayload)
}

func (r *Resource) Font() *FontPayload {
	r.mustBeReady("Font")
	return r.payload.(*FontPayload)
}

func (r *Resource) BitmapFont() *BitmapFontPayload {
	r.mustBeReady("BitmapFont")
	return r.payload.(*BitmapFontPayload)
}

func (r *Resource) Audio() *AudioPayload {
	r.mustBeReady("Audio")
	return r.payload.(*AudioPayload)
}

func (r *Resource) Text() *TextPayload {
	r.mustBeReady("Text")
	return r.payload.(*TextPayload)
}

// mustBeReady enforces the readiness contract. Using an unready resource is
// a programming error, never silently tolerated.
func (r *Resource) mustBeReady(accessor string) {
	if !r.ready.Load() {
		core.LogError("resource %s ('%s') accessor %s called before the resource is ready", r.id, r.filepath, accessor)
		panic(core.ErrNotReady)
	}
}
