package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Visit days and report
// ranges are calendar days in IST.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

const DateLayout = "2006-01-02"

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// StartOfDay returns 00:00:00 IST of the day containing t.
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the last instant of the IST day containing t.
func EndOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// ParseDay parses a YYYY-MM-DD date as an IST calendar day.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, IST)
}
