package run

import "encoding/json"

// Run is a named competitive-timing definition: the game, the category, and
// the ordered segment names. The daemon owns exactly one live Run at a time
// and replaces it wholesale on load, never mutating it in place.
type Run struct {
	Game     string   `json:"game"`
	Category string   `json:"category"`
	Segments []string `json:"segments"`
}

// NewDefault returns the built-in placeholder run used until a real run
// definition is loaded.
func NewDefault() *Run {
	return &Run{
		Game:     "Game",
		Category: "Any%",
		Segments: []string{"Split 1", "Split 2", "Split 3"},
	}
}

// JSON renders the run as a pretty-printed JSON document. A nil run renders
// as an empty object.
func (r *Run) JSON() string {
	if r == nil {
		return "{}"
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		// A Run holds only strings and can always be marshalled.
		return "{}"
	}
	return string(out)
}
