package entities

// NarrativeSource identifies where a comment came from.
type NarrativeSource string

const (
	NarrativeSourceAI       NarrativeSource = "ai"
	NarrativeSourceFallback NarrativeSource = "fallback"
)

// NarrativeComment is the outcome of one generation attempt. Text is empty
// when Source is NarrativeSourceFallback; the static text is substituted at
// render time.
type NarrativeComment struct {
	Text     string          `json:"text"`
	Source   NarrativeSource `json:"source"`
	Provider string          `json:"provider,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// Generated reports whether a remote provider produced usable text.
func (n *NarrativeComment) Generated() bool {
	return n != nil && n.Source == NarrativeSourceAI && n.Text != ""
}
