package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/chat"
)

var _ = Describe("Answer", func() {
	It("concatenates tokens and records meta", func() {
		a := &chat.Answer{}
		a.Apply(chat.Chunk{Type: chat.TypeMeta, Sources: []string{"Official FAQ"}, Debug: "Layer 0: Manual FAQ"})
		a.Apply(chat.Chunk{Type: chat.TypeToken, Content: "Yes,"})
		a.Apply(chat.Chunk{Type: chat.TypeToken, Content: " "})
		a.Apply(chat.Chunk{Type: chat.TypeToken, Content: "it is covered."})

		Expect(a.Text()).To(Equal("Yes, it is covered."))
		Expect(a.Sources).To(Equal([]string{"Official FAQ"}))
		Expect(a.Debug).To(Equal("Layer 0: Manual FAQ"))
		Expect(a.Tokens).To(Equal(3))
		Expect(a.Failed()).To(BeFalse())
	})

	It("stops accumulating after an error chunk", func() {
		a := &chat.Answer{}
		a.Apply(chat.Chunk{Type: chat.TypeToken, Content: "partial"})
		a.Apply(chat.Chunk{Type: chat.TypeError, Content: "Generation failed."})
		a.Apply(chat.Chunk{Type: chat.TypeToken, Content: " ignored"})

		Expect(a.Failed()).To(BeTrue())
		Expect(a.Err).To(Equal("Generation failed."))
		Expect(a.Text()).To(Equal("partial"))
	})

	It("records a placeholder for an error chunk without content", func() {
		a := &chat.Answer{}
		a.Apply(chat.Chunk{Type: chat.TypeError})

		Expect(a.Failed()).To(BeTrue())
		Expect(a.Err).NotTo(BeEmpty())
	})

	It("chains into another callback", func() {
		a := &chat.Answer{}
		seen := []chat.ChunkType{}

		chat.Decode(newStubBody(
			`{"type":"meta","sources":["s"],"debug":"d"}`+"\n"+`{"type":"token","content":"hi"}`+"\n",
		), a.Callback(func(c chat.Chunk) {
			seen = append(seen, c.Type)
		}))

		Expect(seen).To(Equal([]chat.ChunkType{chat.TypeMeta, chat.TypeToken}))
		Expect(a.Text()).To(Equal("hi"))
		Expect(a.Sources).To(Equal([]string{"s"}))
	})

	It("accepts a nil next callback", func() {
		a := &chat.Answer{}
		fn := a.Callback(nil)

		Expect(func() { fn(chat.Chunk{Type: chat.TypeToken, Content: "x"}) }).NotTo(Panic())
		Expect(a.Text()).To(Equal("x"))
	})
})
