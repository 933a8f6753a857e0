// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestBibtexKey(t *testing.T) {
	tests := []struct {
		name string
		md   types.PaperMetadata
		want string
	}{
		{
			name: "full record",
			md: types.PaperMetadata{
				Title:   "Attention Is All You Need",
				Authors: []types.Author{{Name: "Ashish Vaswani"}},
				Year:    2017,
			},
			want: "vaswani2017attention",
		},
		{
			name: "skips leading article",
			md: types.PaperMetadata{
				Title:   "The Annotated Transformer",
				Authors: []types.Author{{Family: "Rush"}},
				Year:    2018,
			},
			want: "rush2018annotated",
		},
		{
			name: "punctuation stripped from name",
			md: types.PaperMetadata{
				Title:   "Deep Learning",
				Authors: []types.Author{{Name: "Yann O'Brien-LeCun"}},
				Year:    2015,
			},
			want: "obrienlecun2015deep",
		},
		{
			name: "missing year and title",
			md: types.PaperMetadata{
				Authors: []types.Author{{Name: "Jane Doe"}},
			},
			want: "doe0000paper",
		},
		{
			name: "no authors",
			md: types.PaperMetadata{
				Title: "On the Electrodynamics of Moving Bodies",
				Year:  1905,
			},
			want: "1905electrodynamics",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BibtexKey(&tt.md))
		})
	}
}

func TestEntryType(t *testing.T) {
	tests := []struct {
		name string
		md   types.PaperMetadata
		want string
	}{
		{"arxiv preprint", types.PaperMetadata{ArxivID: "1706.03762"}, "misc"},
		{"published arxiv paper", types.PaperMetadata{ArxivID: "1706.03762", Venue: "NeurIPS"}, "article"},
		{"proceedings", types.PaperMetadata{PublicationType: "proceedings-article"}, "inproceedings"},
		{"book chapter", types.PaperMetadata{PublicationType: "book-chapter"}, "incollection"},
		{"book", types.PaperMetadata{PublicationType: "book"}, "book"},
		{"journal default", types.PaperMetadata{PublicationType: "journal-article"}, "article"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryType(&tt.md))
		})
	}
}

func TestFormatBibtexArticle(t *testing.T) {
	md := &types.PaperMetadata{
		Title:   "Deep learning",
		Authors: []types.Author{{Name: "Yann LeCun"}, {Name: "Yoshua Bengio"}},
		Year:    2015,
		Venue:   "Nature",
		Volume:  "521",
		Pages:   "436-444",
		DOI:     "10.1038/nature14539",
		URL:     "https://www.nature.com/articles/nature14539",
	}

	got := FormatBibtex(md, "")

	assert.True(t, strings.HasPrefix(got, "@article{lecun2015deep,\n"), "entry header: %q", got)
	for _, want := range []string{
		"  title = {Deep learning}",
		"  author = {Yann LeCun and Yoshua Bengio}",
		"  journal = {Nature}",
		"  volume = {521}",
		"  pages = {436-444}",
		"  doi = {10.1038/nature14539}",
		"  url = {https://www.nature.com/articles/nature14539}",
	} {
		assert.Contains(t, got, want)
	}
}

func TestFormatBibtexArxivPreprint(t *testing.T) {
	md := &types.PaperMetadata{
		Title:    "Attention Is All You Need",
		Authors:  []types.Author{{Name: "Ashish Vaswani"}},
		Year:     2017,
		ArxivID:  "1706.03762",
		Subjects: []string{"cs.CL", "cs.LG"},
		PDFURL:   "https://arxiv.org/pdf/1706.03762",
	}

	got := FormatBibtex(md, "custom2017key")

	assert.True(t, strings.HasPrefix(got, "@misc{custom2017key,\n"), "entry header: %q", got)
	for _, want := range []string{
		"  eprint = {1706.03762}",
		"  archiveprefix = {arXiv}",
		"  primaryclass = {cs.CL}",
		"  url = {https://arxiv.org/pdf/1706.03762}",
	} {
		assert.Contains(t, got, want)
	}
}

func TestFormatBibtexEscapesBraces(t *testing.T) {
	md := &types.PaperMetadata{
		Title: "Results on {Lambda} systems",
		Year:  2020,
	}

	got := FormatBibtex(md, "")
	assert.Contains(t, got, `title = {Results on \{Lambda\} systems}`)
}
