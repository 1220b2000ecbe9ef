package loaders

import (
	"fmt"
	"os"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

// FontLoader parses TrueType fonts.
type FontLoader struct {
	TypeLoaderBase
}

func NewFontLoader(events *core.EventSystem) *FontLoader {
	return &FontLoader{
		TypeLoaderBase: TypeLoaderBase{
			Filetypes:      []string{"ttf"},
			MediaTypenames: []string{"font/ttf"},
			MediaTypes:     []resources.MediaType{resources.MediaTypeFontTTF},
			Events:         events,
		},
	}
}

func (fl *FontLoader) LoadFunction(resource *resources.Resource) (LoadFunc, error) {
	return func() error {
		return fl.load(resource)
	}, nil
}

func (fl *FontLoader) load(r *resources.Resource) error {
	fl.notifyLoading(r)

	fontBytes, err := os.ReadFile(r.Filepath())
	if err != nil {
		fl.notifyFailed(r)
		return err
	}

	f, err := opentype.Parse(fontBytes)
	if err != nil {
		fl.notifyFailed(r)
		return fmt.Errorf("failed to parse font '%s': %w", r.Filepath(), err)
	}

	family, err := f.Name(&sfnt.Buffer{}, sfnt.NameIDFamily)
	if err != nil {
		// A nameless font is still usable.
		core.LogWarn("font '%s' has no family name: %v", r.Filepath(), err)
		family = ""
	}

	r.Publish(&resources.FontPayload{
		Family:     family,
		GlyphCount: f.NumGlyphs(),
		Binary:     fontBytes,
	})
	fl.notifyReady(r)
	return nil
}
