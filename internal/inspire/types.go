// Package inspire provides a client for the INSPIRE-HEP literature database.
package inspire

import (
	"strconv"
)

// Hit is one search result, reduced to the fields the store tracks.
type Hit struct {
	ID        string
	BibKey    string
	ArxivCode string
}

// FulltextURL returns the arXiv abstract page for the hit, or "".
func (h Hit) FulltextURL() string {
	if h.ArxivCode == "" {
		return ""
	}
	return "https://arxiv.org/abs/" + h.ArxivCode
}

// searchResponse mirrors the subset of /api/literature we request.
type searchResponse struct {
	Hits struct {
		Total int         `json:"total"`
		Hits  []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID       string `json:"id"`
	Metadata struct {
		ControlNumber int      `json:"control_number"`
		TexKeys       []string `json:"texkeys"`
		ArxivEprints  []struct {
			Value string `json:"value"`
		} `json:"arxiv_eprints"`
	} `json:"metadata"`
}

func (h searchHit) toHit() Hit {
	hit := Hit{ID: h.ID}
	if h.Metadata.ControlNumber != 0 {
		hit.ID = strconv.Itoa(h.Metadata.ControlNumber)
	}
	if len(h.Metadata.TexKeys) > 0 {
		hit.BibKey = h.Metadata.TexKeys[0]
	}
	if len(h.Metadata.ArxivEprints) > 0 {
		hit.ArxivCode = h.Metadata.ArxivEprints[0].Value
	}
	return hit
}
