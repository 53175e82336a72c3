package history

// Tee fans every recorded event out to several recorders, typically an
// in-memory Log for live queries plus a Store for offline inspection.
type Tee struct {
	recorders []Recorder
}

// NewTee creates a Tee over the given recorders. Nil entries are skipped.
func NewTee(recorders ...Recorder) *Tee {
	kept := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &Tee{recorders: kept}
}

// Record implements Recorder.
func (t *Tee) Record(e Event) {
	for _, r := range t.recorders {
		r.Record(e)
	}
}
