// Package chat decodes the streaming answer format of the FAQ backend.
//
// The backend's ask_stream endpoint responds with application/x-ndjson: one
// JSON object per line, each a Chunk tagged by its "type" field. Decode turns
// the response body into an ordered series of callback invocations and
// Chunks exposes the same decoding as a lazy, single-pass sequence.
package chat

import "encoding/json"

// ChunkType tags the variant carried by a Chunk.
type ChunkType string

const (
	// TypeToken carries incremental answer text in Content.
	TypeToken ChunkType = "token"

	// TypeMeta carries side-channel data: source citations and a debug note
	// describing which answer layer served the request.
	TypeMeta ChunkType = "meta"

	// TypeError signals a terminal failure. Content holds a human-readable
	// message.
	TypeError ChunkType = "error"
)

// Chunk is one decoded event of a streamed answer.
type Chunk struct {
	// Type distinguishes token, meta and error chunks. Values outside the
	// known set are delivered unchanged.
	Type ChunkType `json:"type"`

	// Content is the token text for TypeToken and the failure message for
	// TypeError.
	Content string `json:"content,omitempty"`

	// Sources lists the cited passages. Only set on TypeMeta.
	Sources []string `json:"sources,omitempty"`

	// Debug names the layer that produced the answer
	// (e.g. "Layer 1: Redis Hit"). Only set on TypeMeta.
	Debug string `json:"debug,omitempty"`

	// Raw is the line exactly as the backend sent it. Fields of an
	// unexpected JSON type are only available here.
	Raw json.RawMessage `json:"-"`
}

// IsError reports whether c signals a terminal failure.
func (c Chunk) IsError() bool {
	return c.Type == TypeError
}

// errorChunk builds the synthetic chunk delivered when the stream itself
// fails.
func errorChunk(msg string) Chunk {
	return Chunk{Type: TypeError, Content: msg}
}
