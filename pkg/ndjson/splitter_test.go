package ndjson_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/ndjson"
)

// feedInPieces splits input into fragments of at most size bytes, feeds
// them one by one and returns every line produced plus the final rest.
func feedInPieces(input string, size int) ([]string, string) {
	s := &ndjson.Splitter{}
	all := []string{}
	data := []byte(input)
	for len(data) > 0 {
		n := min(size, len(data))
		lines, err := s.Feed(data[:n])
		Expect(err).NotTo(HaveOccurred())
		all = append(all, lines...)
		data = data[n:]
	}
	return all, s.Rest()
}

var _ = Describe("Splitter", func() {
	Describe("Feed", func() {
		It("returns complete lines and retains the partial tail", func() {
			s := &ndjson.Splitter{}

			lines, err := s.Feed([]byte("one\ntwo\nthr"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"one", "two"}))
			Expect(s.Buffered()).To(Equal(3))

			lines, err = s.Feed([]byte("ee\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"three"}))
			Expect(s.Buffered()).To(BeZero())
		})

		It("returns no lines when no newline has arrived", func() {
			s := &ndjson.Splitter{}

			lines, err := s.Feed([]byte(`{"type":"tok`))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(BeEmpty())
		})

		It("keeps empty lines so callers decide whether to skip them", func() {
			s := &ndjson.Splitter{}

			lines, err := s.Feed([]byte("a\n\n  \nb\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"a", "", "  ", "b"}))
		})

		It("strips a trailing carriage return", func() {
			s := &ndjson.Splitter{}

			lines, err := s.Feed([]byte("a\r\nb\r\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"a", "b"}))
		})

		It("reassembles a UTF-8 rune split across fragments", func() {
			s := &ndjson.Splitter{}
			encoded := []byte("प्रीमियम\n")

			lines, err := s.Feed(encoded[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(BeEmpty())

			lines, err = s.Feed(encoded[1:])
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"प्रीमियम"}))
		})

		It("reports lines that exceed MaxLineSize", func() {
			s := ndjson.NewSplitter(4)

			lines, err := s.Feed([]byte("ok\ntoolong"))
			Expect(err).To(MatchError(ndjson.ErrLineTooLong))
			Expect(lines).To(Equal([]string{"ok"}))
		})

		It("reports a complete line that exceeds MaxLineSize", func() {
			s := ndjson.NewSplitter(4)

			lines, err := s.Feed([]byte("ok\ntoolong\nnext\n"))
			Expect(err).To(MatchError(ndjson.ErrLineTooLong))
			Expect(lines).To(Equal([]string{"ok"}))
		})

		It("accepts a line of exactly MaxLineSize with a CRLF terminator", func() {
			s := ndjson.NewSplitter(4)

			lines, err := s.Feed([]byte("four\r\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(Equal([]string{"four"}))
		})

		It("does not limit lines when MaxLineSize is zero", func() {
			s := ndjson.NewSplitter(0)

			_, err := s.Feed(make([]byte, 1<<16))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Buffered()).To(Equal(1 << 16))
		})
	})

	Describe("Rest", func() {
		It("returns and clears the unterminated tail", func() {
			s := &ndjson.Splitter{}

			_, err := s.Feed([]byte(`{"type":"meta","sources":[]}`))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Rest()).To(Equal(`{"type":"meta","sources":[]}`))
			Expect(s.Rest()).To(BeEmpty())
			Expect(s.Buffered()).To(BeZero())
		})

		It("is empty after a newline-terminated stream", func() {
			s := &ndjson.Splitter{}

			_, err := s.Feed([]byte("a\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Rest()).To(BeEmpty())
		})
	})

	Describe("fragmentation invariance", func() {
		const input = "{\"type\":\"meta\",\"sources\":[\"Policy A\"]}\n" +
			"\n" +
			"{\"type\":\"token\",\"content\":\"Hello\"}\r\n" +
			"{\"type\":\"token\",\"content\":\" wörld\"}\n" +
			"{\"type\":\"token\",\"content\":\"!\"}"

		DescribeTable("produces the same lines for any fragment size",
			func(size int) {
				wantLines, wantRest := feedInPieces(input, len(input))
				gotLines, gotRest := feedInPieces(input, size)

				Expect(gotLines).To(Equal(wantLines))
				Expect(gotRest).To(Equal(wantRest))
			},
			Entry("one byte at a time", 1),
			Entry("two bytes", 2),
			Entry("seven bytes", 7),
			Entry("sixteen bytes", 16),
			Entry("a line and a half", 55),
		)
	})
})
