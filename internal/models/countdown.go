package models

import (
	"fmt"
	"time"
)

// Countdown is the remaining validity of a pass split into display units.
type Countdown struct {
	Days      int64     `json:"days"`
	Hours     int64     `json:"hours"`
	Minutes   int64     `json:"minutes"`
	Seconds   int64     `json:"seconds"`
	IsExpired bool      `json:"isExpired"`
	EndsAt    time.Time `json:"endsAt"`
}

// ComputeCountdown derives the remaining time until the inclusive end of
// endDate. Units come from flooring the millisecond difference.
func ComputeCountdown(endDate Date, now time.Time, loc *time.Location) Countdown {
	end := endDate.EndOfDay(loc)
	out := Countdown{EndsAt: end}

	if now.After(end) {
		out.IsExpired = true
		return out
	}

	diff := end.Sub(now).Milliseconds()
	if diff <= 0 {
		return out
	}

	const (
		second = int64(1000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	out.Days = diff / day
	out.Hours = (diff / hour) % 24
	out.Minutes = (diff / minute) % 60
	out.Seconds = (diff / second) % 60
	return out
}

// ExpiryNotice is a whole-day summary of a pass's remaining validity.
type ExpiryNotice struct {
	DaysRemaining int64  `json:"daysRemaining"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// NoticeFor buckets the calendar days between today and endDate.
func NoticeFor(endDate Date, now time.Time, loc *time.Location) ExpiryNotice {
	if loc == nil {
		loc = time.Local
	}
	today := DateOf(now.In(loc))
	days := int64(endDate.StartOfDay(time.UTC).Sub(today.StartOfDay(time.UTC)).Hours() / 24)

	notice := ExpiryNotice{DaysRemaining: days, Status: string(PassActive)}
	switch {
	case days < 0:
		notice.Status = string(PassExpired)
		notice.Message = fmt.Sprintf("Your pass expired %d %s ago", -days, plural(-days))
	case days == 0:
		notice.Message = "Your pass expires today!"
	case days <= 7:
		notice.Message = fmt.Sprintf("Your pass expires in %d %s", days, plural(days))
	case days <= 30:
		notice.Message = fmt.Sprintf("Your pass expires in %d days", days)
	default:
		notice.Message = fmt.Sprintf("Your pass is valid for %d more days", days)
	}
	return notice
}

func plural(days int64) string {
	if days == 1 {
		return "day"
	}
	return "days"
}
