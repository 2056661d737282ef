package chat

import "strings"

// Answer folds the chunks of one streamed response into the in-progress
// message a client displays.
type Answer struct {
	text strings.Builder

	// Sources and Debug come from the meta chunk. A later meta chunk
	// replaces an earlier one.
	Sources []string
	Debug   string

	// Err is the message of the first error chunk, if any.
	Err string

	// Tokens counts token chunks applied.
	Tokens int
}

// Apply folds c into the answer. Chunks after an error are ignored.
func (a *Answer) Apply(c Chunk) {
	if a.Failed() {
		return
	}

	switch c.Type {
	case TypeToken:
		a.text.WriteString(c.Content)
		a.Tokens++
	case TypeMeta:
		a.Sources = c.Sources
		a.Debug = c.Debug
	case TypeError:
		a.Err = c.Content
		if a.Err == "" {
			a.Err = "unknown stream error"
		}
	}
}

// Text returns the answer text accumulated so far.
func (a *Answer) Text() string {
	return a.text.String()
}

// Failed reports whether an error chunk has been applied.
func (a *Answer) Failed() bool {
	return a.Err != ""
}

// Callback returns a chunk callback that applies each chunk to a and then
// passes it to next. next may be nil.
func (a *Answer) Callback(next func(Chunk)) func(Chunk) {
	return func(c Chunk) {
		a.Apply(c)
		if next != nil {
			next(c)
		}
	}
}
