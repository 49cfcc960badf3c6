package autonomy

import "time"

// NeverSentHours is reported as the hours since the last message when
// nothing has been sent yet.
const NeverSentHours = 999.0

// DateLayout formats the UTC date a daily quota count applies to.
const DateLayout = "2006-01-02"

// InQuietHours reports whether hour falls in the quiet window [start, end).
// A start greater than end wraps past midnight.
func InQuietHours(hour, start, end int) bool {
	if start > end {
		return hour >= start || hour < end
	}
	return start <= hour && hour < end
}

// CooldownActive reports whether less than cooldown has passed since
// lastSend. A zero lastSend means nothing was sent.
func CooldownActive(lastSend, now time.Time, cooldown time.Duration) bool {
	return !lastSend.IsZero() && now.Sub(lastSend) < cooldown
}

// DailyLimitReached reports whether count, recorded for storedDate, already
// meets limit today. A count recorded for any other date counts as zero.
func DailyLimitReached(count int, storedDate, today string, limit int) bool {
	return storedDate == today && count >= limit
}

// HoursSinceLastMessage returns the hours elapsed since lastSend, or
// NeverSentHours when lastSend is zero.
func HoursSinceLastMessage(lastSend, now time.Time) float64 {
	if lastSend.IsZero() {
		return NeverSentHours
	}
	return now.Sub(lastSend).Hours()
}
