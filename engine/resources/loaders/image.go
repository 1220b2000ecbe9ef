package loaders

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

// ImageLoader decodes PNG images into an RGBA pixel payload.
type ImageLoader struct {
	TypeLoaderBase
}

func NewImageLoader(events *core.EventSystem) *ImageLoader {
	return &ImageLoader{
		TypeLoaderBase: TypeLoaderBase{
			Filetypes:      []string{"png"},
			MediaTypenames: []string{"image/png"},
			MediaTypes:     []resources.MediaType{resources.MediaTypeImagePNG},
			Events:         events,
		},
	}
}

func (il *ImageLoader) LoadFunction(resource *resources.Resource) (LoadFunc, error) {
	return func() error {
		return il.load(resource)
	}, nil
}

func (il *ImageLoader) load(r *resources.Resource) error {
	il.notifyLoading(r)

	file, err := os.Open(r.Filepath())
	if err != nil {
		il.notifyFailed(r)
		return err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		il.notifyFailed(r)
		return fmt.Errorf("failed to decode png '%s': %w", r.Filepath(), err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	r.Publish(&resources.ImagePayload{
		Channels: 4,
		Width:    uint32(bounds.Dx()),
		Height:   uint32(bounds.Dy()),
		Pixels:   rgba.Pix,
	})
	il.notifyReady(r)
	return nil
}
