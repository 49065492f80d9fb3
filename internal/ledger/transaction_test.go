package ledger

import (
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Transaction", func() {
	var transaction *Transaction

	ginkgo.BeforeEach(func() {
		transaction = &Transaction{
			ID:          "test-id",
			OwnerID:     "owner-1",
			Kind:        Expense,
			AmountCents: 4250,
			Description: "Corner Cafe",
			Category:    Other,
			OccurredAt:  time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
			Status:      Pending,
		}
	})

	ginkgo.Describe("Validate", func() {
		ginkgo.It("accepts a well-formed record", func() {
			Expect(transaction.Validate()).To(Succeed())
		})

		ginkgo.It("accepts a zero amount", func() {
			transaction.AmountCents = 0
			Expect(transaction.Validate()).To(Succeed())
		})

		ginkgo.DescribeTable("rejecting invalid records",
			func(mutate func(*Transaction), field string) {
				mutate(transaction)
				err := transaction.Validate()
				var validationErr *ValidationError
				Expect(err).To(BeAssignableToTypeOf(validationErr))
				Expect(err.(*ValidationError).Field).To(Equal(field))
			},
			ginkgo.Entry("missing owner", func(t *Transaction) { t.OwnerID = "" }, "owner_id"),
			ginkgo.Entry("unknown kind", func(t *Transaction) { t.Kind = "transfer" }, "kind"),
			ginkgo.Entry("negative amount", func(t *Transaction) { t.AmountCents = -1 }, "amount_cents"),
			ginkgo.Entry("empty description", func(t *Transaction) { t.Description = "" }, "description"),
			ginkgo.Entry("whitespace description", func(t *Transaction) { t.Description = " \t " }, "description"),
			ginkgo.Entry("unknown category", func(t *Transaction) { t.Category = "gambling" }, "category"),
			ginkgo.Entry("zero occurred-at", func(t *Transaction) { t.OccurredAt = time.Time{} }, "occurred_at"),
			ginkgo.Entry("unknown status", func(t *Transaction) { t.Status = "archived" }, "status"),
		)
	})

	ginkgo.Describe("GroupKey", func() {
		ginkgo.It("round-trips through its text form", func() {
			key := GroupKey{Kind: Expense, Category: Utilities}
			text, err := key.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(text)).To(Equal("expense/utilities"))

			var parsed GroupKey
			Expect(parsed.UnmarshalText(text)).To(Succeed())
			Expect(parsed).To(Equal(key))
		})
	})
})
