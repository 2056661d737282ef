package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/faqbot/pkg/history"
	"github.com/papercomputeco/faqbot/pkg/history/inmemory"
	testutils "github.com/papercomputeco/faqbot/pkg/utils/test"
)

var _ = Describe("In-memory Driver", func() {
	testutils.DescribeHistoryDriver(func() history.Driver {
		return inmemory.NewDriver()
	})

	It("does not share sources with the caller", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()

		ex := testutils.NewTestExchange("s-1", "q", time.Now())
		Expect(d.Save(ctx, ex)).To(Succeed())
		ex.Sources[0] = "mutated"

		got, err := d.Get(ctx, ex.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Sources).To(Equal([]string{"Official FAQ"}))
	})
})
