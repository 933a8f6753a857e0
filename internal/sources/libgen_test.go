// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibGenPDFURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/scimag/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "10.1038/nature14539" {
			fmt.Fprint(w, "<html><body>No results</body></html>")
			return
		}
		fmt.Fprintf(w, `<html><table>
<tr><td><a href="%s/scimag/ads/deep-learning">Deep Learning</a></td></tr>
</table></html>`, srv.URL)
	})
	mux.HandleFunc("/scimag/ads/deep-learning", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><h2><a href="https://files.example.org/main/nature14539.pdf">GET</a></h2></html>`)
	})

	orig := libGenMirrors
	libGenMirrors = []string{srv.URL}
	defer func() { libGenMirrors = orig }()

	lg := NewLibGen(srv.Client(), "test-agent")

	url, err := lg.PDFURL(context.Background(), Request{DOI: "10.1038/nature14539"})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.org/main/nature14539.pdf", url)

	url, err = lg.PDFURL(context.Background(), Request{DOI: "10.1/absent"})
	require.NoError(t, err)
	assert.Empty(t, url, "no gateway link means not found")

	url, err = lg.PDFURL(context.Background(), Request{Title: "no doi"})
	require.NoError(t, err)
	assert.Empty(t, url, "LibGen needs a DOI")
}

func TestLibGenAllMirrorsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("connection reset")
	}))
	srv.Close()

	orig := libGenMirrors
	libGenMirrors = []string{srv.URL}
	defer func() { libGenMirrors = orig }()

	lg := NewLibGen(http.DefaultClient, "test-agent")
	_, err := lg.PDFURL(context.Background(), Request{DOI: "10.1/x"})
	assert.ErrorContains(t, err, "all mirrors failed")
}
