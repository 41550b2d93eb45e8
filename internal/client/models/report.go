package models

// Skip records one record dropped during parsing.
type Skip struct {
	DocID  string
	Reason error
}

// ParseReport aggregates strict parse outcomes so that dropped records are
// counted instead of silently lost.
type ParseReport struct {
	Parsed  int
	Skipped []Skip
}

func (r *ParseReport) Ok() {
	r.Parsed++
}

func (r *ParseReport) Skip(docID string, reason error) {
	r.Skipped = append(r.Skipped, Skip{DocID: docID, Reason: reason})
}

func (r *ParseReport) Merge(other ParseReport) {
	r.Parsed += other.Parsed
	r.Skipped = append(r.Skipped, other.Skipped...)
}
