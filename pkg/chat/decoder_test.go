package chat_test

import (
	"bytes"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/chat"
	"github.com/papercomputeco/faqbot/pkg/logger"
)

// stubBody is an io.ReadCloser that hands out one fragment per Read and
// records whether it was closed.
type stubBody struct {
	fragments [][]byte
	err       error

	reads  int
	closed int
}

func newStubBody(fragments ...string) *stubBody {
	b := &stubBody{}
	for _, f := range fragments {
		b.fragments = append(b.fragments, []byte(f))
	}
	return b
}

// failingAfter makes Read return err once all fragments are consumed.
func (b *stubBody) failingAfter(err error) *stubBody {
	b.err = err
	return b
}

func (b *stubBody) Read(p []byte) (int, error) {
	b.reads++
	if b.closed > 0 {
		return 0, errors.New("read on closed body")
	}

	if len(b.fragments) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}

	n := copy(p, b.fragments[0])
	if n < len(b.fragments[0]) {
		b.fragments[0] = b.fragments[0][n:]
	} else {
		b.fragments = b.fragments[1:]
	}
	return n, nil
}

func (b *stubBody) Close() error {
	b.closed++
	return nil
}

// fragment splits s into pieces of at most size bytes.
func fragment(s string, size int) []string {
	var out []string
	for len(s) > 0 {
		n := min(size, len(s))
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

// decodeAll collects every chunk with Raw cleared, so expectations can be
// written as literals. Raw is covered by its own specs.
func decodeAll(body io.ReadCloser, opts ...chat.Option) []chat.Chunk {
	got := []chat.Chunk{}
	chat.Decode(body, func(c chat.Chunk) {
		c.Raw = nil
		got = append(got, c)
	}, opts...)
	return got
}

var _ = Describe("Decode", func() {
	It("delivers one chunk per valid line, in order", func() {
		body := newStubBody(
			`{"type":"meta","sources":["Policy A","Policy B"],"debug":"Layer 3: Streaming"}` + "\n" +
				`{"type":"token","content":"Your"}` + "\n" +
				`{"type":"token","content":" premium"}` + "\n",
		)

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{
			{Type: chat.TypeMeta, Sources: []string{"Policy A", "Policy B"}, Debug: "Layer 3: Streaming"},
			{Type: chat.TypeToken, Content: "Your"},
			{Type: chat.TypeToken, Content: " premium"},
		}))
		Expect(body.closed).To(Equal(1))
	})

	It("skips a malformed line and keeps decoding", func() {
		body := newStubBody(
			`{"type":"token","content":"a"}` + "\n" +
				"not json\n" +
				`{"type":"token","content":"b"}` + "\n",
		)

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{
			{Type: chat.TypeToken, Content: "a"},
			{Type: chat.TypeToken, Content: "b"},
		}))
	})

	It("drops JSON values that are not objects", func() {
		body := newStubBody("null\n42\n[1,2]\n\"text\"\n" + `{"type":"token","content":"ok"}` + "\n")

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{{Type: chat.TypeToken, Content: "ok"}}))
	})

	It("keeps objects whose fields have unexpected types", func() {
		body := newStubBody(
			`{"type":"meta","sources":[{"file":"policy.pdf","page":3},"Section 9"],"debug":"Layer 3"}` + "\n" +
				`{"type":"token","content":5}` + "\n" +
				`{"type":"token","content":"ok"}` + "\n",
		)

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{
			{Type: chat.TypeMeta, Sources: []string{`{"file":"policy.pdf","page":3}`, "Section 9"}, Debug: "Layer 3"},
			{Type: chat.TypeToken, Content: "5"},
			{Type: chat.TypeToken, Content: "ok"},
		}))
	})

	DescribeTable("yields one chunk per object regardless of field types",
		func(line string, want chat.Chunk) {
			got := decodeAll(newStubBody(line + "\n"))
			Expect(got).To(Equal([]chat.Chunk{want}))
		},
		Entry("numeric type", `{"type":7}`, chat.Chunk{Type: "7"}),
		Entry("null content", `{"type":"token","content":null}`, chat.Chunk{Type: chat.TypeToken}),
		Entry("object content", `{"type":"token","content":{"text":"x"}}`, chat.Chunk{Type: chat.TypeToken, Content: `{"text":"x"}`}),
		Entry("string sources", `{"type":"meta","sources":"FAQ"}`, chat.Chunk{Type: chat.TypeMeta, Sources: []string{"FAQ"}}),
		Entry("boolean debug", `{"type":"meta","debug":true}`, chat.Chunk{Type: chat.TypeMeta, Debug: "true"}),
		Entry("empty object", `{}`, chat.Chunk{}),
	)

	It("keeps the original line in Raw", func() {
		const line = `{"type":"meta","sources":[{"file":"policy.pdf"}],"extra":1}`

		got := []chat.Chunk{}
		chat.Decode(newStubBody(line+"\r\n"), func(c chat.Chunk) { got = append(got, c) })

		Expect(got).To(HaveLen(1))
		Expect(got[0].Raw).To(MatchJSON(line))
	})

	It("parses a final line without a trailing newline", func() {
		body := newStubBody(`{"type":"meta","sources":[]}`)

		got := decodeAll(body)
		Expect(got).To(HaveLen(1))
		Expect(got[0].Type).To(Equal(chat.TypeMeta))
		Expect(got[0].Sources).To(BeEmpty())
		Expect(body.closed).To(Equal(1))
	})

	It("ignores empty and whitespace-only lines", func() {
		body := newStubBody(
			"\n   \n" + `{"type":"token","content":"a"}` + "\n\t\n\n" + `{"type":"token","content":"b"}` + "\n  ",
		)

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{
			{Type: chat.TypeToken, Content: "a"},
			{Type: chat.TypeToken, Content: "b"},
		}))
	})

	It("delivers chunks with unknown types unchanged", func() {
		body := newStubBody(`{"type":"heartbeat"}` + "\n")

		got := decodeAll(body)
		Expect(got).To(Equal([]chat.Chunk{{Type: chat.ChunkType("heartbeat")}}))
	})

	It("delivers nothing for an empty body", func() {
		body := newStubBody()

		Expect(decodeAll(body)).To(BeEmpty())
		Expect(body.closed).To(Equal(1))
	})

	Describe("fragmentation invariance", func() {
		const stream = `{"type":"meta","sources":["Clause 4.2"],"debug":"Layer 1: Redis Hit"}` + "\n" +
			`{"type":"token","content":"Claims are settled "}` + "\r\n" +
			"\n" +
			`{"type":"token","content":"within 30 días."}` + "\n" +
			"garbage\n" +
			`{"type":"token","content":"✓"}`

		DescribeTable("yields identical chunks however the bytes are split",
			func(size int) {
				want := decodeAll(newStubBody(stream))
				got := decodeAll(newStubBody(fragment(stream, size)...))

				Expect(want).To(HaveLen(4))
				Expect(got).To(Equal(want))
			},
			Entry("one byte per read", 1),
			Entry("three bytes per read", 3),
			Entry("thirteen bytes per read", 13),
			Entry("splitting mid-line", 40),
		)

		It("is unaffected by a small read buffer", func() {
			want := decodeAll(newStubBody(stream))
			got := decodeAll(newStubBody(stream), chat.WithReadSize(5))

			Expect(got).To(Equal(want))
		})
	})

	Describe("transport failure", func() {
		It("delivers exactly one error chunk and nothing after it", func() {
			body := newStubBody(
				`{"type":"token","content":"a"}`+"\n",
				`{"type":"token","content":"b"}`+"\n"+`{"type":"tok`,
			).failingAfter(errors.New("connection reset by peer"))

			got := decodeAll(body)
			Expect(got).To(HaveLen(3))
			Expect(got[0]).To(Equal(chat.Chunk{Type: chat.TypeToken, Content: "a"}))
			Expect(got[1]).To(Equal(chat.Chunk{Type: chat.TypeToken, Content: "b"}))
			Expect(got[2].Type).To(Equal(chat.TypeError))
			Expect(got[2].Content).To(ContainSubstring("connection reset by peer"))
			Expect(body.closed).To(Equal(1))
		})

		It("treats an unexpected EOF as a failure", func() {
			body := newStubBody(`{"type":"token","content":"a"}` + "\n").failingAfter(io.ErrUnexpectedEOF)

			got := decodeAll(body)
			Expect(got).To(HaveLen(2))
			Expect(got[1].IsError()).To(BeTrue())
		})
	})

	Describe("resource release", func() {
		It("closes the body after normal completion", func() {
			body := newStubBody(`{"type":"token","content":"a"}` + "\n")
			decodeAll(body)
			Expect(body.closed).To(Equal(1))
		})

		It("closes the body after a transport failure", func() {
			body := newStubBody().failingAfter(errors.New("boom"))
			decodeAll(body)
			Expect(body.closed).To(Equal(1))
		})

		It("closes the body when the final buffer is malformed", func() {
			body := newStubBody(`{"type":"token","content":"a"}` + "\n" + `{"type":"tok`)

			got := decodeAll(body)
			Expect(got).To(Equal([]chat.Chunk{{Type: chat.TypeToken, Content: "a"}}))
			Expect(body.closed).To(Equal(1))
		})
	})

	Describe("backpressure", func() {
		It("invokes the callback before reading further", func() {
			body := newStubBody(
				`{"type":"token","content":"a"}`+"\n",
				`{"type":"token","content":"b"}`+"\n",
			)

			readsAtCallback := []int{}
			chat.Decode(body, func(chat.Chunk) {
				readsAtCallback = append(readsAtCallback, body.reads)
			})

			Expect(readsAtCallback).To(Equal([]int{1, 2}))
		})
	})

	Describe("WithMaxConsecutiveFailures", func() {
		It("aborts after k malformed lines in a row", func() {
			body := newStubBody(
				`{"type":"token","content":"a"}` + "\nbad\nworse\nworst\n" + `{"type":"token","content":"b"}` + "\n",
			)

			got := decodeAll(body, chat.WithMaxConsecutiveFailures(2))
			Expect(got).To(HaveLen(2))
			Expect(got[0].Content).To(Equal("a"))
			Expect(got[1].IsError()).To(BeTrue())
			Expect(got[1].Content).To(ContainSubstring("2 consecutive malformed lines"))
			Expect(body.closed).To(Equal(1))
		})

		It("resets the count after a successful line", func() {
			body := newStubBody("bad\n" + `{"type":"token","content":"a"}` + "\nbad\n" + `{"type":"token","content":"b"}` + "\n")

			got := decodeAll(body, chat.WithMaxConsecutiveFailures(2))
			Expect(got).To(Equal([]chat.Chunk{
				{Type: chat.TypeToken, Content: "a"},
				{Type: chat.TypeToken, Content: "b"},
			}))
		})
	})

	Describe("WithMaxLineSize", func() {
		It("ends the stream with an error chunk when a line is too long", func() {
			body := newStubBody(`{"type":"token","content":"a"}` + "\n" + strings.Repeat("x", 128))

			got := decodeAll(body, chat.WithMaxLineSize(64))
			Expect(got).To(HaveLen(2))
			Expect(got[1].IsError()).To(BeTrue())
			Expect(body.closed).To(Equal(1))
		})

		It("rejects a complete oversized line that arrives in a single read", func() {
			long := `{"type":"token","content":"` + strings.Repeat("x", 100) + `"}`
			body := newStubBody(`{"type":"token","content":"a"}` + "\n" + long + "\n" + `{"type":"token","content":"b"}` + "\n")

			got := decodeAll(body, chat.WithMaxLineSize(64))
			Expect(got).To(HaveLen(2))
			Expect(got[0].Content).To(Equal("a"))
			Expect(got[1].IsError()).To(BeTrue())
		})
	})

	Describe("WithLogger", func() {
		It("logs malformed lines without surfacing them", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))

			got := decodeAll(newStubBody("not json\n"), chat.WithLogger(l))
			Expect(got).To(BeEmpty())
			Expect(buf.String()).To(ContainSubstring("dropping malformed stream line"))
			Expect(buf.String()).To(ContainSubstring("not json"))
		})
	})
})

var _ = Describe("Chunks", func() {
	It("yields the same chunks as Decode", func() {
		const stream = `{"type":"token","content":"a"}` + "\nnope\n" + `{"type":"token","content":"b"}`

		got := []chat.Chunk{}
		for c := range chat.Chunks(newStubBody(fragment(stream, 4)...)) {
			c.Raw = nil
			got = append(got, c)
		}

		Expect(got).To(Equal(decodeAll(newStubBody(stream))))
	})

	It("closes the body when the caller stops early", func() {
		body := newStubBody(
			`{"type":"token","content":"a"}` + "\n" + `{"type":"token","content":"b"}` + "\n",
		)

		for c := range chat.Chunks(body) {
			Expect(c.Content).To(Equal("a"))
			break
		}

		Expect(body.closed).To(Equal(1))
	})

	It("leaves the body to the caller until it is ranged over", func() {
		body := newStubBody(`{"type":"token","content":"a"}` + "\n")

		seq := chat.Chunks(body)
		Expect(body.closed).To(BeZero())
		Expect(body.reads).To(BeZero())

		for range seq {
		}
		Expect(body.closed).To(Equal(1))
	})

	It("is single-pass", func() {
		seq := chat.Chunks(newStubBody(`{"type":"token","content":"a"}` + "\n"))

		first, second := 0, 0
		for range seq {
			first++
		}
		for range seq {
			second++
		}

		Expect(first).To(Equal(1))
		Expect(second).To(BeZero())
	})
})
