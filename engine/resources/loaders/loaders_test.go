package loaders_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
	"github.com/spaghettifunk/forge/engine/resources/loaders"
)

// stateRecorder collects resource state notifications.
type stateRecorder struct {
	mutex sync.Mutex
	codes []core.SystemEventCode
}

func newStateRecorder(es *core.EventSystem) *stateRecorder {
	sr := &stateRecorder{}
	onEvent := func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		sr.mutex.Lock()
		sr.codes = append(sr.codes, code)
		sr.mutex.Unlock()
		return false
	}
	es.Register(core.EVENT_CODE_RESOURCE_LOADING, sr, onEvent)
	es.Register(core.EVENT_CODE_RESOURCE_LOADED, sr, onEvent)
	es.Register(core.EVENT_CODE_RESOURCE_FAILED, sr, onEvent)
	return sr
}

func (sr *stateRecorder) has(code core.SystemEventCode) bool {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()
	for _, c := range sr.codes {
		if c == code {
			return true
		}
	}
	return false
}

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func runTask(t *testing.T, l loaders.TypeLoader, r *resources.Resource) error {
	t.Helper()
	task, err := l.LoadFunction(r)
	if err != nil {
		t.Fatal(err)
	}
	return task()
}

func TestBaseMembership(t *testing.T) {
	base := &loaders.TypeLoaderBase{
		Filetypes:      []string{"png"},
		MediaTypenames: []string{"image/png"},
		MediaTypes:     []resources.MediaType{resources.MediaTypeImagePNG},
	}
	if !base.HandlesFiletype("png") || !base.HandlesFiletype(".PNG") {
		t.Error("extension membership failed")
	}
	if base.HandlesFiletype("jpg") {
		t.Error("unexpected extension accepted")
	}
	if !base.HandlesMediaTypename("image/png") || base.HandlesMediaTypename("image/jpeg") {
		t.Error("typename membership failed")
	}
	if !base.HandlesMediaType(resources.MediaTypeImagePNG) || base.HandlesMediaType(resources.MediaTypeTextXML) {
		t.Error("media type membership failed")
	}
}

func TestImageLoader(t *testing.T) {
	events := core.NewEventSystem()
	recorder := newStateRecorder(events)
	il := loaders.NewImageLoader(events)

	path := writeTestPNG(t, t.TempDir(), "a.png", 8, 4)
	r := resources.NewFromFile(path, resources.MediaTypeImagePNG)

	if err := runTask(t, il, r); err != nil {
		t.Fatal(err)
	}
	if !r.IsReady() {
		t.Fatal("resource should be ready")
	}
	img := r.Image()
	if img.Width != 8 || img.Height != 4 || img.Channels != 4 {
		t.Errorf("unexpected dimensions: %dx%d/%d", img.Width, img.Height, img.Channels)
	}
	if len(img.Pixels) != 8*4*4 {
		t.Errorf("unexpected pixel buffer size %d", len(img.Pixels))
	}
	if !recorder.has(core.EVENT_CODE_RESOURCE_LOADING) || !recorder.has(core.EVENT_CODE_RESOURCE_LOADED) {
		t.Error("missing loading/loaded notifications")
	}
}

func TestImageLoaderRejectsGarbage(t *testing.T) {
	events := core.NewEventSystem()
	recorder := newStateRecorder(events)
	il := loaders.NewImageLoader(events)

	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := resources.NewFromFile(path, resources.MediaTypeImagePNG)

	if err := runTask(t, il, r); err == nil {
		t.Fatal("expected decode error")
	}
	if r.IsReady() {
		t.Error("failed load must not mark the resource ready")
	}
	if !recorder.has(core.EVENT_CODE_RESOURCE_FAILED) {
		t.Error("missing failed notification")
	}
	if recorder.has(core.EVENT_CODE_RESOURCE_LOADED) {
		t.Error("unexpected loaded notification")
	}
}

func TestTextLoader(t *testing.T) {
	events := core.NewEventSystem()
	tl := loaders.NewTextLoader(events)

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.xml")
	content := `<?xml version="1.0"?><scene><node name="root"/></scene>`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resources.NewFromFile(path, resources.MediaTypeTextXML)
	if err := runTask(t, tl, r); err != nil {
		t.Fatal(err)
	}
	if r.Text().Content != content {
		t.Error("content mismatch")
	}
}

func TestTextLoaderRejectsMalformedXML(t *testing.T) {
	events := core.NewEventSystem()
	recorder := newStateRecorder(events)
	tl := loaders.NewTextLoader(events)

	path := filepath.Join(t.TempDir(), "broken.xml")
	if err := os.WriteFile(path, []byte("<open><and-never-close>"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resources.NewFromFile(path, resources.MediaTypeTextXML)
	if err := runTask(t, tl, r); err == nil {
		t.Fatal("expected parse error")
	}
	if r.IsReady() {
		t.Error("failed load must not mark the resource ready")
	}
	if !recorder.has(core.EVENT_CODE_RESOURCE_FAILED) {
		t.Error("missing failed notification")
	}
}

func TestFontLoaderRejectsGarbage(t *testing.T) {
	events := core.NewEventSystem()
	fl := loaders.NewFontLoader(events)

	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("definitely not a font"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resources.NewFromFile(path, resources.MediaTypeFontTTF)
	if err := runTask(t, fl, r); err == nil {
		t.Fatal("expected parse error")
	}
	if r.IsReady() {
		t.Error("failed load must not mark the resource ready")
	}
}

func TestBitmapFontLoader(t *testing.T) {
	events := core.NewEventSystem()
	bl := loaders.NewBitmapFontLoader(events)

	fnt := `info face="TestFace" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=36 base=29 scaleW=256 scaleH=128 pages=1 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="testface_0.png"
chars count=2
char id=65 x=2 y=2 width=20 height=24 xoffset=0 yoffset=2 xadvance=21 page=0 chnl=15
char id=66 x=24 y=2 width=18 height=24 xoffset=1 yoffset=2 xadvance=20 page=0 chnl=15
kernings count=1
kerning first=65 second=66 amount=-1
`
	path := filepath.Join(t.TempDir(), "testface.fnt")
	if err := os.WriteFile(path, []byte(fnt), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resources.NewFromFile(path, resources.MediaTypeFontBitmap)
	if err := runTask(t, bl, r); err != nil {
		t.Fatal(err)
	}
	bf := r.BitmapFont()
	if bf.Face != "TestFace" || bf.Size != 32 {
		t.Errorf("unexpected face metadata: %s/%d", bf.Face, bf.Size)
	}
	if bf.LineHeight != 36 || bf.Baseline != 29 {
		t.Errorf("unexpected metrics: %d/%d", bf.LineHeight, bf.Baseline)
	}
	if len(bf.Glyphs) != 2 || len(bf.Pages) != 1 || len(bf.Kernings) != 1 {
		t.Errorf("unexpected counts: %d glyphs, %d pages, %d kernings",
			len(bf.Glyphs), len(bf.Pages), len(bf.Kernings))
	}
}

func TestAudioLoaderWave(t *testing.T) {
	events := core.NewEventSystem()
	al := loaders.NewAudioLoader(events)

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		SourceBitDepth: 16,
		Data:           make([]int, 2*128),
	}
	for i := range buf.Data {
		buf.Data[i] = (i % 64) * 100
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r := resources.NewFromFile(path, resources.MediaTypeAudioWave)
	if err := runTask(t, al, r); err != nil {
		t.Fatal(err)
	}
	a := r.Audio()
	if a.SampleRate != 44100 || a.Channels != 2 || a.BitDepth != 16 {
		t.Errorf("unexpected format: %d/%d/%d", a.SampleRate, a.Channels, a.BitDepth)
	}
	if a.SampleCount != 128 {
		t.Errorf("expected 128 frames, got %d", a.SampleCount)
	}
	if len(a.PCM) != 2*128*2 {
		t.Errorf("unexpected pcm size %d", len(a.PCM))
	}
}

func TestAudioLoaderRejectsGarbage(t *testing.T) {
	events := core.NewEventSystem()
	recorder := newStateRecorder(events)
	al := loaders.NewAudioLoader(events)

	path := filepath.Join(t.TempDir(), "broken.flac")
	if err := os.WriteFile(path, []byte("not flac at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resources.NewFromFile(path, resources.MediaTypeAudioFlac)
	if err := runTask(t, al, r); err == nil {
		t.Fatal("expected decode error")
	}
	if r.IsReady() {
		t.Error("failed load must not mark the resource ready")
	}
	if !recorder.has(core.EVENT_CODE_RESOURCE_FAILED) {
		t.Error("missing failed notification")
	}
}
