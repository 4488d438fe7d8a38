// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// releaseTypeLTS marks a long-term-support channel in the feed.
const releaseTypeLTS = "lts"

// ErrMalformedFeed is returned when release metadata cannot be interpreted.
var ErrMalformedFeed = errors.New("malformed release feed")

type (
	// IndexDocument is the wire format of releases-index.json.
	IndexDocument struct {
		Channels []IndexChannel `json:"releases-index"`
	}

	// IndexChannel is one channel summary in releases-index.json.
	IndexChannel struct {
		ChannelVersion string `json:"channel-version"`
		LatestRelease  string `json:"latest-release"`
		LatestSDK      string `json:"latest-sdk"`
		ReleaseType    string `json:"release-type"`
		SupportPhase   string `json:"support-phase"`
		ReleasesJSON   string `json:"releases.json"`
	}

	// ChannelDocument is the wire format of a per-channel releases.json.
	ChannelDocument struct {
		ChannelVersion string        `json:"channel-version"`
		ReleaseType    string        `json:"release-type"`
		SupportPhase   string        `json:"support-phase,omitempty"`
		Releases       []ReleaseNode `json:"releases"`
	}

	// ReleaseNode is one patch release of a channel. A release ships one
	// runtime and one or more SDKs.
	ReleaseNode struct {
		ReleaseVersion string         `json:"release-version"`
		SDK            *ProductNode   `json:"sdk,omitempty"`
		SDKs           []*ProductNode `json:"sdks,omitempty"`
		Runtime        *ProductNode   `json:"runtime,omitempty"`
		ASPNETCore     *ProductNode   `json:"aspnetcore-runtime,omitempty"`
	}

	// ProductNode describes one component version and its downloads.
	ProductNode struct {
		Version string `json:"version"`
		Files   []File `json:"files"`
	}

	// File is one downloadable artifact.
	File struct {
		Name string `json:"name"`
		RID  string `json:"rid"`
		URL  string `json:"url"`
		Hash string `json:"hash"`
	}

	// Catalog pairs an Index with the download files of every entry.
	Catalog struct {
		index *Index
		files map[string][]File
	}
)

// NewCatalog flattens channel documents into a catalog. A component
// version listed by several releases keeps the files of its first listing.
func NewCatalog(docs ...ChannelDocument) (*Catalog, error) {
	var entries []Entry
	files := make(map[string][]File)

	for _, doc := range docs {
		lts := strings.EqualFold(doc.ReleaseType, releaseTypeLTS)
		for _, rel := range doc.Releases {
			for c, node := range rel.products() {
				v, err := version.Parse(node.Version)
				if err != nil {
					return nil, fmt.Errorf("%w: channel %s release %s: %w", ErrMalformedFeed, doc.ChannelVersion, rel.ReleaseVersion, err)
				}
				if !v.IsConcrete() {
					return nil, fmt.Errorf("%w: channel %s lists wildcard %s", ErrMalformedFeed, doc.ChannelVersion, v)
				}
				key := fileKey(c, v)
				if _, seen := files[key]; seen {
					continue
				}
				files[key] = node.Files
				entries = append(entries, Entry{Component: c, Version: v, Prerelease: v.IsPreview(), LTS: lts})
			}
		}
	}
	return &Catalog{index: NewIndex(entries...), files: files}, nil
}

// Index returns the catalog's release index.
func (c *Catalog) Index() *Index {
	if c == nil {
		return NewIndex()
	}
	return c.index
}

// Files returns the downloads published for a component version.
func (c *Catalog) Files(comp types.Component, v version.Version) ([]File, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.index.Lookup(comp, v)
	if !ok {
		return nil, false
	}
	files, ok := c.files[fileKey(comp, e.Version)]
	return files, ok
}

// products yields the non-empty component nodes of a release. The
// singular "sdk" node duplicates one of "sdks" when both are present.
func (r ReleaseNode) products() iter.Seq2[types.Component, *ProductNode] {
	return func(yield func(types.Component, *ProductNode) bool) {
		sdks := r.SDKs
		if len(sdks) == 0 && r.SDK != nil {
			sdks = []*ProductNode{r.SDK}
		}
		for _, n := range sdks {
			if n != nil && n.Version != "" && !yield(types.ComponentSDK, n) {
				return
			}
		}
		if r.Runtime != nil && r.Runtime.Version != "" && !yield(types.ComponentRuntime, r.Runtime) {
			return
		}
		if r.ASPNETCore != nil && r.ASPNETCore.Version != "" {
			yield(types.ComponentASPNETCore, r.ASPNETCore)
		}
	}
}

func fileKey(c types.Component, v version.Version) string {
	return string(c) + "/" + v.String()
}

// decodeJSON decodes exactly one JSON value from r into dst.
func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedFeed, err)
	}
	return nil
}
