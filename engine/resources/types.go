package resources

import (
	"path/filepath"
	"strings"
)

type MediaType int

/** @brief Pre-defined media types. */
const (
	/** @brief Media type is not (yet) known. Resources of this type are rejected. */
	MediaTypeUndefined MediaType = iota
	/** @brief FLAC audio media type. */
	MediaTypeAudioFlac
	/** @brief Ogg/Vorbis audio media type. */
	MediaTypeAudioVorbis
	/** @brief Opus audio media type. */
	MediaTypeAudioOpus
	/** @brief Waveform (RIFF) audio media type. */
	MediaTypeAudioWave
	/** @brief PNG image media type. */
	MediaTypeImagePNG
	/** @brief TrueType font media type. */
	MediaTypeFontTTF
	/** @brief AngelCode bitmap font media type. Never inferred, explicit only. */
	MediaTypeFontBitmap
	/** @brief XML text media type. */
	MediaTypeTextXML
	/** @brief Custom media type. Used by type loaders outside the core engine. */
	MediaTypeCustom
)

/** @brief MIME-like typenames, index-aligned with the MediaType constants. */
var mediaTypenames = map[MediaType]string{
	MediaTypeAudioFlac:   "audio/flac",
	MediaTypeAudioVorbis: "audio/vorbis",
	MediaTypeAudioOpus:   "audio/opus",
	MediaTypeAudioWave:   "audio/wave",
	MediaTypeImagePNG:    "image/png",
	MediaTypeFontTTF:     "font/ttf",
	MediaTypeFontBitmap:  "font/bitmap",
	MediaTypeTextXML:     "text/xml",
	MediaTypeCustom:      "custom",
}

func (mt MediaType) Typename() string {
	if name, ok := mediaTypenames[mt]; ok {
		return name
	}
	return "undefined"
}

func MediaTypeFromTypename(name string) MediaType {
	for mt, n := range mediaTypenames {
		if n == name {
			return mt
		}
	}
	return MediaTypeUndefined
}

// MediaTypeFromPath infers the media type from the file extension. Anything
// outside the table stays Undefined and is rejected by the loader system.
func MediaTypeFromPath(path string) MediaType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return MediaTypeAudioFlac
	case ".ogg":
		return MediaTypeAudioVorbis
	case ".opus":
		return MediaTypeAudioOpus
	case ".png":
		return MediaTypeImagePNG
	case ".ttf":
		return MediaTypeFontTTF
	case ".wav", ".wave":
		return MediaTypeAudioWave
	case ".xml":
		return MediaTypeTextXML
	default:
		return MediaTypeUndefined
	}
}

/** @brief Resource lifecycle states carried by state-change notifications. */
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
	StateInvalid
	StateUnloaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateInvalid:
		return "invalid"
	case StateUnloaded:
		return "unloaded"
	}
	return "unknown"
}

// Payload is the format-specific data a type loader produces. Each concrete
// type loader owns exactly one variant.
type Payload interface {
	isPayload()
}

/**
 * @brief A structure to hold image resource data.
 */
type ImagePayload struct {
	/** @brief The number of channels. */
	Channels uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image, RGBA interleaved. */
	Pixels []uint8
}

func (*ImagePayload) isPayload() {}

/**
 * @brief A structure to hold a parsed vector font.
 */
type FontPayload struct {
	/** @brief The family name reported by the font. */
	Family string
	/** @brief The number of glyphs in the font. */
	GlyphCount int
	/** @brief The raw font file bytes backing the parsed font. */
	Binary []byte
}

func (*FontPayload) isPayload() {}

type BitmapFontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type BitmapFontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type BitmapFontPage struct {
	ID   int8
	File string
}

/**
 * @brief A structure to hold bitmap font resource data.
 */
type BitmapFontPayload struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []*BitmapFontGlyph
	Kernings   []*BitmapFontKerning
	Pages      []*BitmapFontPage
}

func (*BitmapFontPayload) isPayload() {}

/**
 * @brief A structure to hold decoded audio data as interleaved 16-bit PCM.
 */
type AudioPayload struct {
	SampleRate int
	Channels   int
	BitDepth   int
	/** @brief Interleaved little-endian PCM frames. */
	PCM []byte
	/** @brief Total per-channel sample count. */
	SampleCount int
}

func (*AudioPayload) isPayload() {}

/**
 * @brief A structure to hold plain-text (XML) resource data.
 */
type TextPayload struct {
	Content string
}

func (*TextPayload) isPayload() {}
