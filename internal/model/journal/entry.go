package journal

// Entry is a dated journal note written through the journal form.
type Entry struct {
	Date     string `json:"date"`
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
	Mood     string `json:"mood,omitempty"`
}
