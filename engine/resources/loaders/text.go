package loaders

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
)

// TextLoader reads XML documents as plain text, rejecting malformed markup.
type TextLoader struct {
	TypeLoaderBase
}

func NewTextLoader(events *core.EventSystem) *TextLoader {
	return &TextLoader{
		TypeLoaderBase: TypeLoaderBase{
			Filetypes:      []string{"xml"},
			MediaTypenames: []string{"text/xml"},
			MediaTypes:     []resources.MediaType{resources.MediaTypeTextXML},
			Events:         events,
		},
	}
}

func (tl *TextLoader) LoadFunction(resource *resources.Resource) (LoadFunc, error) {
	return func() error {
		return tl.load(resource)
	}, nil
}

func (tl *TextLoader) load(r *resources.Resource) error {
	tl.notifyLoading(r)

	content, err := os.ReadFile(r.Filepath())
	if err != nil {
		tl.notifyFailed(r)
		return err
	}

	if err := validateXML(content); err != nil {
		tl.notifyFailed(r)
		return fmt.Errorf("failed to parse xml '%s': %w", r.Filepath(), err)
	}

	r.Publish(&resources.TextPayload{
		Content: string(content),
	})
	tl.notifyReady(r)
	return nil
}

func validateXML(content []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	for {
		_, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
