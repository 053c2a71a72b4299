package store

import "strings"

// Stats summarises the store contents.
type Stats struct {
	Records            int `json:"records"`
	Complete           int `json:"complete"`
	WithBibKey         int `json:"with_bibkey"`
	InfoFetched        int `json:"info_fetched"`
	ReferencesFetched  int `json:"references_fetched"`
	CitationsFetched   int `json:"citations_fetched"`
	CocitationsFetched int `json:"cocitations_fetched"`
}

// Statistics counts records by the information they carry.
func (s *Store) Statistics() Stats {
	st := Stats{Records: len(s.records)}
	for _, rec := range s.records {
		if rec.IsComplete() {
			st.Complete++
		}
		if rec.BibKey != "" {
			st.WithBibKey++
		}
		if rec.InfoFetched {
			st.InfoFetched++
		}
		if rec.ReferencesFetched {
			st.ReferencesFetched++
		}
		if rec.CitationsFetched {
			st.CitationsFetched++
		}
		if rec.CocitationsFetched {
			st.CocitationsFetched++
		}
	}
	return st
}

// LogStatistics writes the statistics banner at info level.
func (s *Store) LogStatistics() {
	st := s.Statistics()
	s.logger.Info(strings.Repeat("*", 21) + " STATISTICS " + strings.Repeat("*", 21))
	s.logger.Info("records", "total", st.Records, "complete", st.Complete, "with_bibkey", st.WithBibKey)
	s.logger.Info("fetched",
		"info", st.InfoFetched,
		"references", st.ReferencesFetched,
		"citations", st.CitationsFetched,
		"cocitations", st.CocitationsFetched,
	)
	s.logger.Info(strings.Repeat("*", 54))
}
