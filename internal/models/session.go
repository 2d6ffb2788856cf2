package models

// SessionContext is the state a UI threads through coding operations.
// Cursor equal to len(Worklist) means every poem is complete.
type SessionContext struct {
	SessionID string
	CoderID   string
	Worklist  []PoemReference
	Cursor    int
}

// Done reports whether the cursor is past the last poem.
func (s SessionContext) Done() bool {
	return s.Cursor >= len(s.Worklist)
}

// Current returns the reference under the cursor.
func (s SessionContext) Current() (PoemReference, bool) {
	if s.Cursor < 0 || s.Done() {
		return PoemReference{}, false
	}

	return s.Worklist[s.Cursor], true
}

// Draft is the annotation a UI hands over for a save.
type Draft struct {
	Tags       []string
	TagInput   string
	Sentiment  string
	Notes      string
	IsComplete bool
}
