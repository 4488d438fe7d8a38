// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"context"
	"fmt"
	"io"
	"os"
)

type (
	// FileProvider reads the catalog from a local JSON file. The file is
	// either a single channel releases.json or a document with a
	// "channels" array of them, as written by Cache.
	FileProvider struct {
		path string
	}

	offlineDocument struct {
		ChannelDocument
		Channels []ChannelDocument `json:"channels"`
	}
)

// NewFileProvider returns a provider backed by the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Index implements Provider.
func (p *FileProvider) Index(ctx context.Context) (*Index, error) {
	cat, err := p.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Index(), nil
}

// Catalog implements CatalogProvider.
func (p *FileProvider) Catalog(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only

	var doc offlineDocument
	if err := decodeJSON(io.LimitReader(f, maxJSONResponseBytes), &doc); err != nil {
		return nil, fmt.Errorf("index file %s: %w", p.path, err)
	}
	docs := doc.Channels
	if len(doc.Releases) > 0 {
		docs = append([]ChannelDocument{doc.ChannelDocument}, docs...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: index file %s lists no releases", ErrMalformedFeed, p.path)
	}
	return NewCatalog(docs...)
}
