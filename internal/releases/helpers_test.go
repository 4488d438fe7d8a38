// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// feedServer serves a releases-index.json at /index.json that links to
// relative per-channel documents.
type feedServer struct {
	*httptest.Server
	requests atomic.Int64
}

func newFeedServer(t *testing.T, docs map[string]ChannelDocument, extra map[string][]byte) *feedServer {
	t.Helper()

	idx := IndexDocument{}
	for ch, doc := range docs {
		idx.Channels = append(idx.Channels, IndexChannel{
			ChannelVersion: ch,
			ReleaseType:    doc.ReleaseType,
			ReleasesJSON:   ch + "/releases.json",
		})
	}

	fs := &feedServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, _ *http.Request) {
		fs.requests.Add(1)
		writeJSON(t, w, idx)
	})
	for ch, doc := range docs {
		mux.HandleFunc("/"+ch+"/releases.json", func(w http.ResponseWriter, _ *http.Request) {
			fs.requests.Add(1)
			writeJSON(t, w, doc)
		})
	}
	for path, body := range extra {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			fs.requests.Add(1)
			_, _ = w.Write(body)
		})
	}
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func channel9() ChannelDocument {
	return ChannelDocument{
		ChannelVersion: "9.0",
		ReleaseType:    "sts",
		Releases: []ReleaseNode{
			{
				ReleaseVersion: "9.0.1",
				SDKs: []*ProductNode{
					{Version: "9.0.102", Files: []File{{Name: "dotnet-sdk-linux-x64.tar.gz", RID: "linux-x64", URL: "/files/sdk-9.0.102.tar.gz", Hash: "00"}}},
					{Version: "9.0.200"},
				},
				Runtime:    &ProductNode{Version: "9.0.1"},
				ASPNETCore: &ProductNode{Version: "9.0.1"},
			},
			{
				ReleaseVersion: "9.0.0",
				SDK:            &ProductNode{Version: "9.0.100"},
				Runtime:        &ProductNode{Version: "9.0.0"},
			},
			{
				ReleaseVersion: "9.0.0-rc.2.24473.5",
				SDK:            &ProductNode{Version: "9.0.100-rc.2.24474.11"},
				Runtime:        &ProductNode{Version: "9.0.0-rc.2.24473.5"},
			},
		},
	}
}

func channel8() ChannelDocument {
	return ChannelDocument{
		ChannelVersion: "8.0",
		ReleaseType:    "lts",
		Releases: []ReleaseNode{
			{
				ReleaseVersion: "8.0.11",
				SDK:            &ProductNode{Version: "8.0.404"},
				SDKs:           []*ProductNode{{Version: "8.0.404"}, {Version: "8.0.307"}},
				Runtime:        &ProductNode{Version: "8.0.11"},
			},
		},
	}
}
