package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/history"
)

// DescribeHistoryDriver registers the behaviour every history.Driver shares.
// Call it from inside a Describe container.
func DescribeHistoryDriver(newDriver func() history.Driver) {
	var (
		driver history.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		driver = newDriver()
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("Save and Get", func() {
		It("assigns increasing IDs and round trips every field", func() {
			first := NewTestExchange("s-1", "What is a deductible?", base)
			first.Debug = "Layer 2: Semantic Cache"
			second := NewTestExchange("s-1", "How do I claim?", base.Add(time.Minute))
			second.Failed = true
			second.Error = "stream interrupted: unexpected EOF"
			second.Sources = nil

			Expect(driver.Save(ctx, first)).To(Succeed())
			Expect(driver.Save(ctx, second)).To(Succeed())
			Expect(first.ID).To(BeNumerically(">", 0))
			Expect(second.ID).To(BeNumerically(">", first.ID))

			got, err := driver.Get(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.SessionID).To(Equal("s-1"))
			Expect(got.ProductID).To(Equal("1"))
			Expect(got.Question).To(Equal("What is a deductible?"))
			Expect(got.Answer).To(Equal("answer to What is a deductible?"))
			Expect(got.Sources).To(Equal([]string{"Official FAQ"}))
			Expect(got.Debug).To(Equal("Layer 2: Semantic Cache"))
			Expect(got.Failed).To(BeFalse())
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())

			got, err = driver.Get(ctx, second.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Failed).To(BeTrue())
			Expect(got.Error).To(Equal("stream interrupted: unexpected EOF"))
			Expect(got.Sources).To(BeEmpty())
		})

		It("sets CreatedAt when zero", func() {
			ex := NewTestExchange("s-1", "q", time.Time{})
			Expect(driver.Save(ctx, ex)).To(Succeed())
			Expect(ex.CreatedAt).NotTo(BeZero())
		})

		It("rejects nil and session-less exchanges", func() {
			Expect(driver.Save(ctx, nil)).To(MatchError(history.ErrNilExchange))
			Expect(driver.Save(ctx, NewTestExchange("", "q", base))).To(HaveOccurred())
		})

		It("returns NotFoundError for unknown IDs", func() {
			_, err := driver.Get(ctx, 42)

			var notFound history.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal(int64(42)))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i, q := range []string{"one", "two", "three", "four"} {
				Expect(driver.Save(ctx, NewTestExchange("s-1", q, base.Add(time.Duration(i)*time.Minute)))).To(Succeed())
			}
			Expect(driver.Save(ctx, NewTestExchange("s-2", "other", base.Add(90*time.Second)))).To(Succeed())
		})

		questions := func(exs []*history.Exchange) []string {
			out := make([]string, 0, len(exs))
			for _, ex := range exs {
				out = append(out, ex.Question)
			}
			return out
		}

		It("lists a session oldest first", func() {
			exs, err := driver.List(ctx, "s-1", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(questions(exs)).To(Equal([]string{"one", "two", "three", "four"}))
		})

		It("keeps the most recent exchanges under a limit", func() {
			exs, err := driver.List(ctx, "s-1", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(questions(exs)).To(Equal([]string{"three", "four"}))
		})

		It("lists across sessions when no session is given", func() {
			exs, err := driver.List(ctx, "", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(questions(exs)).To(Equal([]string{"one", "two", "other", "three", "four"}))
		})

		It("returns nothing for an unknown session", func() {
			exs, err := driver.List(ctx, "missing", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(exs).To(BeEmpty())
		})
	})

	Describe("Sessions", func() {
		It("orders sessions by latest activity", func() {
			Expect(driver.Save(ctx, NewTestExchange("old", "q", base))).To(Succeed())
			Expect(driver.Save(ctx, NewTestExchange("new", "q", base.Add(time.Hour)))).To(Succeed())
			Expect(driver.Save(ctx, NewTestExchange("old", "q", base.Add(2*time.Hour)))).To(Succeed())
			Expect(driver.Save(ctx, NewTestExchange("mid", "q", base.Add(90*time.Minute)))).To(Succeed())

			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(Equal([]string{"old", "mid", "new"}))
		})

		It("is empty for a fresh store", func() {
			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})
}
