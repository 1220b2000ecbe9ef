package loaders

import (
	"fmt"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

// BitmapFontLoader imports AngelCode .fnt descriptors. The extension is not
// part of the inference table, so these only load with an explicit
// font/bitmap media type.
type BitmapFontLoader struct {
	TypeLoaderBase
}

func NewBitmapFontLoader(events *core.EventSystem) *BitmapFontLoader {
	return &BitmapFontLoader{
		TypeLoaderBase: TypeLoaderBase{
			Filetypes:      []string{"fnt"},
			MediaTypenames: []string{"font/bitmap"},
			MediaTypes:     []resources.MediaType{resources.MediaTypeFontBitmap},
			Events:         events,
		},
	}
}

func (fl *BitmapFontLoader) LoadFunction(resource *resources.Resource) (LoadFunc, error) {
	return func() error {
		return fl.load(resource)
	}, nil
}

func (fl *BitmapFontLoader) load(r *resources.Resource) error {
	fl.notifyLoading(r)

	payload, err := fl.importFNTFile(r.Filepath())
	if err != nil {
		fl.notifyFailed(r)
		return fmt.Errorf("failed to import bitmap font '%s': %w", r.Filepath(), err)
	}

	r.Publish(payload)
	fl.notifyReady(r)
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*resources.BitmapFontPayload, error) {
	// Only the descriptor is imported here; page atlases load separately as
	// image resources.
	desc, err := bmfont.LoadDescriptor(fntFileName)
	if err != nil {
		return nil, err
	}

	outData := &resources.BitmapFontPayload{
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleH),
		AtlasSizeY: int32(desc.Common.ScaleW),
		Glyphs:     make([]*resources.BitmapFontGlyph, 0, len(desc.Chars)),
		Kernings:   make([]*resources.BitmapFontKerning, 0, len(desc.Kerning)),
		Pages:      make([]*resources.BitmapFontPage, 0, len(desc.Pages)),
	}

	for _, p := range desc.Pages {
		outData.Pages = append(outData.Pages, &resources.BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
		})
	}

	for _, g := range desc.Chars {
		outData.Glyphs = append(outData.Glyphs, &resources.BitmapFontGlyph{
			Codepoint: g.ID,
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}

	for p, k := range desc.Kerning {
		outData.Kernings = append(outData.Kernings, &resources.BitmapFontKerning{
			Codepoint0: p.First,
			Codepoint1: p.Second,
			Amount:     int16(k.Amount),
		})
	}

	return outData, nil
}
