package autonomy_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilwagman/Ambient-AI/pkg/autonomy"
)

var _ = Describe("InQuietHours", func() {
	quietSet := func(start, end int) []int {
		var hours []int
		for h := range 24 {
			if autonomy.InQuietHours(h, start, end) {
				hours = append(hours, h)
			}
		}
		return hours
	}

	DescribeTable("enumerates the quiet window",
		func(start, end int, expected []int) {
			Expect(quietSet(start, end)).To(Equal(expected))
		},
		Entry("wrapping past midnight", 23, 8, []int{0, 1, 2, 3, 4, 5, 6, 7, 23}),
		Entry("within one day", 8, 23, []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22}),
		Entry("one hour", 2, 3, []int{2}),
		Entry("ending at midnight", 22, 0, []int{22, 23}),
		Entry("empty window", 5, 5, nil),
	)

	It("matches the rule for every start and end", func() {
		for start := range 24 {
			for end := range 24 {
				for h := range 24 {
					var want bool
					if start > end {
						want = h >= start || h < end
					} else {
						want = start <= h && h < end
					}
					Expect(autonomy.InQuietHours(h, start, end)).To(Equal(want), "hour=%d start=%d end=%d", h, start, end)
				}
			}
		}
	})
})

var _ = Describe("CooldownActive", func() {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	It("is inactive when nothing was sent", func() {
		Expect(autonomy.CooldownActive(time.Time{}, now, 2*time.Hour)).To(BeFalse())
	})

	It("is active inside the window", func() {
		Expect(autonomy.CooldownActive(now.Add(-30*time.Minute), now, 2*time.Hour)).To(BeTrue())
	})

	It("is inactive once the window has passed", func() {
		Expect(autonomy.CooldownActive(now.Add(-2*time.Hour), now, 2*time.Hour)).To(BeFalse())
		Expect(autonomy.CooldownActive(now.Add(-3*time.Hour), now, 2*time.Hour)).To(BeFalse())
	})

	It("is inactive with a zero cooldown", func() {
		Expect(autonomy.CooldownActive(now, now, 0)).To(BeFalse())
	})
})

var _ = Describe("DailyLimitReached", func() {
	It("is reached at the limit for today", func() {
		Expect(autonomy.DailyLimitReached(3, "2026-10-16", "2026-10-16", 3)).To(BeTrue())
		Expect(autonomy.DailyLimitReached(2, "2026-10-16", "2026-10-16", 3)).To(BeFalse())
	})

	It("treats a count from another date as zero", func() {
		Expect(autonomy.DailyLimitReached(3, "2026-10-15", "2026-10-16", 3)).To(BeFalse())
		Expect(autonomy.DailyLimitReached(0, "", "2026-10-16", 0)).To(BeFalse())
	})

	It("blocks everything with a zero limit once a date is stored", func() {
		Expect(autonomy.DailyLimitReached(0, "2026-10-16", "2026-10-16", 0)).To(BeTrue())
	})
})

var _ = Describe("HoursSinceLastMessage", func() {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	It("returns the sentinel when nothing was sent", func() {
		Expect(autonomy.HoursSinceLastMessage(time.Time{}, now)).To(Equal(autonomy.NeverSentHours))
	})

	It("returns fractional hours", func() {
		Expect(autonomy.HoursSinceLastMessage(now.Add(-90*time.Minute), now)).To(BeNumerically("~", 1.5, 1e-9))
	})
})
