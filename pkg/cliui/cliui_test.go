package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("prints a single result line to a non-terminal writer", func() {
			var buf bytes.Buffer
			err := cliui.Step(&buf, "Fetching products", func() error { return nil })

			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("Fetching products"))
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
			Expect(buf.String()).NotTo(ContainSubstring("\r"))
		})

		It("returns the function error and marks failure", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")

			Expect(cliui.Step(&buf, "Fetching", func() error { return boom })).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})
	})

	DescribeTable("FormatDuration",
		func(d time.Duration, want string) {
			Expect(cliui.FormatDuration(d)).To(Equal(want))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
	)

	Describe("FormatSources", func() {
		It("is empty without sources", func() {
			Expect(cliui.FormatSources(nil)).To(BeEmpty())
		})

		It("lists each source", func() {
			out := cliui.FormatSources([]string{"Official FAQ", "Policy Wording, Section 4"})
			Expect(out).To(ContainSubstring("Sources:"))
			Expect(out).To(ContainSubstring("- Official FAQ"))
			Expect(out).To(ContainSubstring("- Policy Wording, Section 4"))
		})
	})

	It("treats buffers as non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
		Expect(cliui.TerminalWidth(&buf, 72)).To(Equal(72))
	})

	It("renders markdown", func() {
		out, err := cliui.RenderMarkdown("**covered**", 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("covered"))
	})
})
