package extract

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeDate", func() {
	var (
		input string
		date  time.Time
		ok    bool
	)

	JustBeforeEach(func() {
		date, ok = NormalizeDate(input)
	})

	When("the substring is month-day-year with a 2-digit year", func() {
		BeforeEach(func() {
			input = "03/04/25"
		})

		It("maps the year into the 2000s", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the substring is year-first", func() {
		BeforeEach(func() {
			input = "2025-03-04"
		})

		It("reads it as year-month-day", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the substring is year-first with slashes", func() {
		BeforeEach(func() {
			input = "2024/12/31"
		})

		It("reads it as year-month-day", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the substring mixes separators", func() {
		BeforeEach(func() {
			input = "03-04/2025"
		})

		It("still splits into three parts", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the month and day are out of range", func() {
		BeforeEach(func() {
			input = "13/40/2025"
		})

		It("reports unknown rather than a wrapped date", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the day does not exist in the month", func() {
		BeforeEach(func() {
			input = "02/30/2025"
		})

		It("reports unknown", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the day is February 29 of a leap year", func() {
		BeforeEach(func() {
			input = "02/29/2024"
		})

		It("accepts it", func() {
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the substring has only two parts", func() {
		BeforeEach(func() {
			input = "03/2025"
		})

		It("reports unknown", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the substring has four parts", func() {
		BeforeEach(func() {
			input = "1/2/3/4"
		})

		It("reports unknown", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("a part is not numeric", func() {
		BeforeEach(func() {
			input = "03/xx/2025"
		})

		It("reports unknown", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the result is inspected for a time component", func() {
		BeforeEach(func() {
			input = "2025-06-15"
		})

		It("is midnight UTC", func() {
			Expect(ok).To(BeTrue())
			Expect(date.Location()).To(Equal(time.UTC))
			h, m, s := date.Clock()
			Expect([3]int{h, m, s}).To(Equal([3]int{0, 0, 0}))
		})
	})
})
