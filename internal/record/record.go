// Package record defines the core domain type for one publication in the
// citation graph together with its merge rules.
package record

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// DefaultURLTemplate is the record page on INSPIRE-HEP, formatted with the id.
const DefaultURLTemplate = "https://inspirehep.net/record/%s"

// bibKeyYearPattern finds the year in keys such as "Davies:2016ruz".
var bibKeyYearPattern = regexp.MustCompile(`:([0-9]{4})`)

// Data-integrity errors. These are never resolved silently.
var (
	ErrIDMismatch      = errors.New("cannot merge records with different ids")
	ErrBibKeyConflict  = errors.New("conflicting bibliographic keys")
	ErrEmptyIdentifier = errors.New("record id is required")
)

// Record represents one publication and the citation edges known for it.
type Record struct {
	// Identity
	ID string `json:"id"`

	// Bibliographic info
	BibKey      string `json:"bibkey,omitempty"`
	CustomLabel string `json:"custom_label,omitempty"`
	FulltextURL string `json:"fulltext_url,omitempty"`

	// Edges
	References  IDSet `json:"references,omitempty"`  // ids this record cites
	Citations   IDSet `json:"citations,omitempty"`   // ids citing this record
	Cocitations IDSet `json:"cocitations,omitempty"` // ids frequently co-cited with this record

	// Download tracking: set once the remote source was asked, even if the answer was empty.
	ReferencesFetched  bool `json:"references_fetched,omitempty"`
	CitationsFetched   bool `json:"citations_fetched,omitempty"`
	CocitationsFetched bool `json:"cocitations_fetched,omitempty"`
	InfoFetched        bool `json:"info_fetched,omitempty"`
}

// New creates an empty record for id.
func New(id string) *Record {
	return &Record{
		ID:          id,
		References:  IDSet{},
		Citations:   IDSet{},
		Cocitations: IDSet{},
	}
}

// Validate checks the fields required for persistence.
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrEmptyIdentifier
	}
	return nil
}

// Label returns the display label: bibkey, then custom label, then id.
func (r *Record) Label() string {
	if r.BibKey != "" {
		return r.BibKey
	}
	if r.CustomLabel != "" {
		return r.CustomLabel
	}
	return r.ID
}

// IsComplete reports whether every kind of information has been fetched and
// a bibliographic key is known.
func (r *Record) IsComplete() bool {
	return r.ReferencesFetched && r.CitationsFetched && r.CocitationsFetched &&
		r.InfoFetched && r.BibKey != ""
}

// Year returns the 4-digit year embedded in the bibliographic key.
func (r *Record) Year() (int, bool) {
	return BibKeyYear(r.BibKey)
}

// BibKeyYear parses the year out of a bibliographic key.
func BibKeyYear(bibKey string) (int, bool) {
	m := bibKeyYearPattern.FindStringSubmatch(bibKey)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// URL formats the record's page URL from a template containing one %s.
func (r *Record) URL(template string) string {
	if template == "" {
		template = DefaultURLTemplate
	}
	return fmt.Sprintf(template, r.ID)
}

// Merge folds other into r. Edge sets are unioned and fetch flags OR'd; the
// bibliographic key, custom label and fulltext URL keep the first non-empty
// value. Differing ids or two different non-empty bibliographic keys are
// reported and leave r untouched.
func (r *Record) Merge(other *Record) error {
	if other == nil {
		return nil
	}
	if r.ID != other.ID {
		return fmt.Errorf("%w: %q vs %q", ErrIDMismatch, r.ID, other.ID)
	}
	if r.BibKey != "" && other.BibKey != "" && r.BibKey != other.BibKey {
		return fmt.Errorf("%w for record %s: %q vs %q", ErrBibKeyConflict, r.ID, r.BibKey, other.BibKey)
	}

	if r.BibKey == "" {
		r.BibKey = other.BibKey
	}
	if r.CustomLabel == "" {
		r.CustomLabel = other.CustomLabel
	}
	if r.FulltextURL == "" {
		r.FulltextURL = other.FulltextURL
	}

	r.References = union(r.References, other.References)
	r.Citations = union(r.Citations, other.Citations)
	r.Cocitations = union(r.Cocitations, other.Cocitations)

	r.ReferencesFetched = r.ReferencesFetched || other.ReferencesFetched
	r.CitationsFetched = r.CitationsFetched || other.CitationsFetched
	r.CocitationsFetched = r.CocitationsFetched || other.CocitationsFetched
	r.InfoFetched = r.InfoFetched || other.InfoFetched

	return nil
}

func union(dst, src IDSet) IDSet {
	if dst == nil {
		dst = IDSet{}
	}
	dst.Union(src)
	return dst
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.References = r.References.Clone()
	c.Citations = r.Citations.Clone()
	c.Cocitations = r.Cocitations.Clone()
	return &c
}

// Equal compares all fields. Nil and empty edge sets are equal.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.ID == other.ID &&
		r.BibKey == other.BibKey &&
		r.CustomLabel == other.CustomLabel &&
		r.FulltextURL == other.FulltextURL &&
		r.References.Equal(other.References) &&
		r.Citations.Equal(other.Citations) &&
		r.Cocitations.Equal(other.Cocitations) &&
		r.ReferencesFetched == other.ReferencesFetched &&
		r.CitationsFetched == other.CitationsFetched &&
		r.CocitationsFetched == other.CocitationsFetched &&
		r.InfoFetched == other.InfoFetched
}

// String implements fmt.Stringer for log output.
func (r *Record) String() string {
	return fmt.Sprintf("R(%s)", r.ID)
}
