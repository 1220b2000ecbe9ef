package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"

	"github.com/go-audio/wav"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

// AudioLoader decodes flac, ogg/vorbis, opus and wave files into interleaved
// signed 16-bit little-endian PCM.
type AudioLoader struct {
	TypeLoaderBase
}

func NewAudioLoader(events *core.EventSystem) *AudioLoader {
	return &AudioLoader{
		TypeLoaderBase: TypeLoaderBase{
			Filetypes:      []string{"flac", "ogg", "opus", "wav", "wave"},
			MediaTypenames: []string{"audio/flac", "audio/vorbis", "audio/opus", "audio/wave"},
			MediaTypes: []resources.MediaType{
				resources.MediaTypeAudioFlac,
				resources.MediaTypeAudioVorbis,
				resources.MediaTypeAudioOpus,
				resources.MediaTypeAudioWave,
			},
			Events: events,
		},
	}
}

func (al *AudioLoader) LoadFunction(resource *resources.Resource) (LoadFunc, error) {
	return func() error {
		return al.load(resource)
	}, nil
}

func (al *AudioLoader) load(r *resources.Resource) error {
	al.notifyLoading(r)

	var payload *resources.AudioPayload
	var err error
	switch r.MediaType() {
	case resources.MediaTypeAudioFlac:
		payload, err = decodeFlac(r.Filepath())
	case resources.MediaTypeAudioVorbis:
		payload, err = decodeVorbis(r.Filepath())
	case resources.MediaTypeAudioOpus:
		payload, err = decodeOpus(r.Filepath())
	case resources.MediaTypeAudioWave:
		payload, err = decodeWave(r.Filepath())
	default:
		err = fmt.Errorf("audio loader cannot handle media type %s", r.MediaType().Typename())
	}
	if err != nil {
		al.notifyFailed(r)
		return fmt.Errorf("failed to decode audio '%s': %w", r.Filepath(), err)
	}

	r.Publish(payload)
	al.notifyReady(r)
	return nil
}

func decodeFlac(path string) (*resources.AudioPayload, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	shift := int(stream.Info.BitsPerSample) - 16

	var pcm bytes.Buffer
	frames := 0
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		// Subframes hold one channel each; interleave them.
		for i := 0; i < int(frame.BlockSize); i++ {
			for _, sub := range frame.Subframes {
				writeSample16(&pcm, scaleTo16(int64(sub.Samples[i]), shift))
			}
			frames++
		}
	}

	return &resources.AudioPayload{
		SampleRate:  int(stream.Info.SampleRate),
		Channels:    channels,
		BitDepth:    16,
		PCM:         pcm.Bytes(),
		SampleCount: frames,
	}, nil
}

func decodeVorbis(path string) (*resources.AudioPayload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, format, err := oggvorbis.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var pcm bytes.Buffer
	for _, s := range data {
		writeSample16(&pcm, floatTo16(s))
	}

	return &resources.AudioPayload{
		SampleRate:  format.SampleRate,
		Channels:    format.Channels,
		BitDepth:    16,
		PCM:         pcm.Bytes(),
		SampleCount: len(data) / format.Channels,
	}, nil
}

func decodeOpus(path string) (*resources.AudioPayload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ogg, header, err := oggreader.NewWith(file)
	if err != nil {
		return nil, err
	}

	decoder := opus.NewDecoder()
	// Opus always decodes at 48kHz regardless of the input rate.
	sampleRate := 48000
	channels := int(header.Channels)
	if channels == 0 {
		channels = 1
	}

	var pcm bytes.Buffer
	out := make([]byte, 1920)
	for {
		segments, _, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, segment := range segments {
			if bytes.HasPrefix(segment, []byte("OpusTags")) || bytes.HasPrefix(segment, []byte("OpusHead")) {
				continue
			}
			if _, _, err := decoder.Decode(segment, out); err != nil {
				return nil, err
			}
			pcm.Write(out)
		}
	}

	return &resources.AudioPayload{
		SampleRate:  sampleRate,
		Channels:    channels,
		BitDepth:    16,
		PCM:         pcm.Bytes(),
		SampleCount: pcm.Len() / 2 / channels,
	}, nil
}

func decodeWave(path string) (*resources.AudioPayload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("wave file has no format chunk")
	}

	shift := int(dec.BitDepth) - 16
	var pcm bytes.Buffer
	for _, s := range buf.Data {
		writeSample16(&pcm, scaleTo16(int64(s), shift))
	}

	return &resources.AudioPayload{
		SampleRate:  buf.Format.SampleRate,
		Channels:    buf.Format.NumChannels,
		BitDepth:    16,
		PCM:         pcm.Bytes(),
		SampleCount: len(buf.Data) / buf.Format.NumChannels,
	}, nil
}

func writeSample16(w *bytes.Buffer, s int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(s))
	w.Write(b[:])
}

// scaleTo16 shifts a sample of arbitrary bit depth to 16 bits.
func scaleTo16(s int64, shift int) int16 {
	if shift > 0 {
		s >>= shift
	} else if shift < 0 {
		s <<= -shift
	}
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

func floatTo16(s float32) int16 {
	v := int64(s * 32767)
	return scaleTo16(v, 0)
}
