package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/papercomputeco/faqbot/pkg/ndjson"
	"github.com/papercomputeco/faqbot/pkg/utils"
)

// Decode reads newline-delimited JSON chunks from body and calls fn once per
// chunk, in stream order, as soon as each line is complete.
//
// fn runs synchronously inside the read loop, so a slow callback delays the
// next read. Empty and whitespace-only lines are skipped. A line that is not
// a JSON object is logged and dropped without ending the stream. Any JSON
// object yields exactly one chunk, even when its fields have unexpected
// types; see Chunk.Raw. When the body ends, a trailing unterminated line is
// parsed as well.
//
// If reading the body fails, fn receives a single TypeError chunk describing
// the failure and nothing after it. Decode never returns an error: every
// outcome is delivered through fn. body is closed on every exit path.
//
// Decode does not watch a context. Cancel the HTTP request to abandon a
// stream; the failed read is then reported as an error chunk.
func Decode(body io.ReadCloser, fn func(Chunk), opts ...Option) {
	d := &decoder{config: newDecodeConfig(opts...)}
	d.run(body, func(c Chunk) bool {
		fn(c)
		return true
	})
}

// Chunks returns the chunks of body as a lazy sequence with the same
// semantics as Decode. The sequence is single-pass: ranging over it a second
// time yields nothing. Breaking out of the loop early closes body.
//
// body is only closed once the sequence is ranged over. A caller that
// never ranges over it must close body itself.
func Chunks(body io.ReadCloser, opts ...Option) iter.Seq[Chunk] {
	consumed := false
	return func(yield func(Chunk) bool) {
		if consumed {
			return
		}
		consumed = true

		d := &decoder{config: newDecodeConfig(opts...)}
		d.run(body, yield)
	}
}

type decoder struct {
	config *decodeConfig

	// failures counts malformed lines since the last successful parse.
	failures int
}

// run is the decode loop. It returns when the body is exhausted, fails, or
// yield asks to stop.
func (d *decoder) run(body io.ReadCloser, yield func(Chunk) bool) {
	log := d.config.logger

	defer func() {
		if err := body.Close(); err != nil {
			log.Debug("closing stream body", "error", err)
		}
	}()

	splitter := ndjson.NewSplitter(d.config.maxLineSize)
	buf := make([]byte, d.config.readSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			lines, ferr := splitter.Feed(buf[:n])
			for _, line := range lines {
				if !d.line(line, yield) {
					return
				}
			}

			if ferr != nil {
				log.Warn("dropping oversized stream line",
					"buffered", splitter.Buffered(),
					"max", d.config.maxLineSize,
				)
				yield(errorChunk(fmt.Sprintf("stream interrupted: %v", ferr)))
				return
			}
		}

		if errors.Is(err, io.EOF) {
			if rest := strings.TrimSpace(splitter.Rest()); rest != "" {
				d.line(rest, yield)
			}
			return
		}

		if err != nil {
			log.Debug("stream read failed", "error", err)
			yield(errorChunk(fmt.Sprintf("stream interrupted: %v", err)))
			return
		}
	}
}

// line parses a single framed line and delivers it. It reports whether
// decoding should continue.
func (d *decoder) line(line string, yield func(Chunk) bool) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}

	chunk, err := parseChunk(trimmed)
	if err != nil {
		d.failures++
		d.config.logger.Warn("dropping malformed stream line",
			"error", err,
			"line", utils.Truncate(trimmed, 200),
			"consecutive", d.failures,
		)

		if d.config.maxConsecutive > 0 && d.failures >= d.config.maxConsecutive {
			yield(errorChunk(fmt.Sprintf("stream aborted after %d consecutive malformed lines", d.failures)))
			return false
		}
		return true
	}

	d.failures = 0
	return yield(chunk)
}

// wireChunk is the loose shape of a line. Every field is kept raw so a
// mistyped field does not reject the whole object.
type wireChunk struct {
	Type    json.RawMessage `json:"type"`
	Content json.RawMessage `json:"content"`
	Sources json.RawMessage `json:"sources"`
	Debug   json.RawMessage `json:"debug"`
}

// parseChunk decodes one line. Only JSON objects are accepted; scalars,
// arrays and null fail even though they are valid JSON. Fields are filled
// best effort: a field of the wrong JSON type is rendered as its JSON text.
func parseChunk(line string) (Chunk, error) {
	if !strings.HasPrefix(line, "{") {
		return Chunk{}, &LineParseError{Line: line, Err: errors.New("not a JSON object")}
	}

	var w wireChunk
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Chunk{}, &LineParseError{Line: line, Err: err}
	}

	typ, _ := jsonString(w.Type)
	content, _ := jsonString(w.Content)
	debug, _ := jsonString(w.Debug)

	return Chunk{
		Type:    ChunkType(typ),
		Content: content,
		Sources: jsonStrings(w.Sources),
		Debug:   debug,
		Raw:     json.RawMessage(line),
	}, nil
}

// jsonString returns raw as a string. Non-string values come back as their
// JSON text and ok is false. Absent fields and null are "".
func jsonString(raw json.RawMessage) (s string, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", true
	}
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), false
}

// jsonStrings decodes a list of citations. Elements that are not strings
// keep their JSON text, and a lone string becomes a one-element list.
func jsonStrings(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s, _ := jsonString(raw)
		return []string{s}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s, _ := jsonString(it)
		out = append(out, s)
	}
	return out
}

// LineParseError describes a stream line that could not be parsed as a
// chunk. It is only ever logged; Decode recovers from it locally.
type LineParseError struct {
	Line string
	Err  error
}

func (e *LineParseError) Error() string {
	return "parsing stream line: " + e.Err.Error()
}

func (e *LineParseError) Unwrap() error {
	return e.Err
}

// LogValue keeps the offending line out of the error attribute; it is
// logged separately and truncated.
func (e *LineParseError) LogValue() slog.Value {
	return slog.StringValue(e.Error())
}
