package catalog

import (
	"regexp"
	"strings"
)

// NoMeetingText is rendered for entries without a parsed meeting time.
const NoMeetingText = "No meeting time listed"

// Meeting is a parsed meeting pattern. A zero Meeting (Scheduled=false) is
// the "no meeting time" sentinel: the text was absent or could not be parsed.
type Meeting struct {
	Weekdays  string `json:"weekdays"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Scheduled bool   `json:"scheduled"`
}

// Text renders the meeting as "Mon/Wed 10:30 AM-11:45 AM".
func (m Meeting) Text() string {
	if !m.Scheduled {
		return NoMeetingText
	}
	var b strings.Builder
	b.WriteString(m.Weekdays)
	if m.StartTime != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.StartTime)
		if m.EndTime != "" {
			b.WriteByte('-')
			b.WriteString(m.EndTime)
		}
	}
	return b.String()
}

// dayNames maps single-letter day codes to names. R is Thursday and U is Sunday.
var dayNames = map[rune]string{
	'M': "Mon",
	'T': "Tue",
	'W': "Wed",
	'R': "Thu",
	'F': "Fri",
	'S': "Sat",
	'U': "Sun",
}

var (
	dayCodePattern   = regexp.MustCompile(`^[MTWRFSU]+$`)
	clockPattern     = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP])\.?M\.?$`)
	combinedPattern  = regexp.MustCompile(`(?i)^\s*([MTWRFSU]+)\s+(\d{1,2}:\d{2}\s*[AP]\.?M\.?)\s*(?:-|–|—|to)\s*(\d{1,2}:\d{2}\s*[AP]\.?M\.?)\s*$`)
	namedDaysPattern = regexp.MustCompile(`^(Mon|Tue|Wed|Thu|Fri|Sat|Sun)(/(Mon|Tue|Wed|Thu|Fri|Sat|Sun))*$`)
)

// ExpandDayCodes converts "MW" to "Mon/Wed". Text already in named form is
// returned as-is; anything else returns "".
func ExpandDayCodes(codes string) string {
	codes = strings.TrimSpace(codes)
	if namedDaysPattern.MatchString(codes) {
		return codes
	}
	upper := strings.ToUpper(codes)
	if !dayCodePattern.MatchString(upper) {
		return ""
	}
	names := make([]string, 0, len(upper))
	for _, r := range upper {
		names = append(names, dayNames[r])
	}
	return strings.Join(names, "/")
}

// NormalizeClock formats "10:30am" or "10:30 a.m." as "10:30 AM".
// Unrecognized input returns "".
func NormalizeClock(s string) string {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return m[1] + ":" + m[2] + " " + strings.ToUpper(m[3]) + "M"
}

// ParseCombinedMeeting parses "MW 10:30 AM - 11:45 AM". This is a best-effort
// heuristic for text scraped from PDFs, not a grammar: anything it does not
// recognize yields the sentinel (Scheduled=false).
func ParseCombinedMeeting(text string) Meeting {
	m := combinedPattern.FindStringSubmatch(text)
	if m == nil {
		return Meeting{}
	}
	days := ExpandDayCodes(m[1])
	start := NormalizeClock(m[2])
	end := NormalizeClock(m[3])
	if days == "" || start == "" || end == "" {
		return Meeting{}
	}
	return Meeting{Weekdays: days, StartTime: start, EndTime: end, Scheduled: true}
}

// ParseMeeting builds a Meeting from the catalog's weekday/start/end columns.
// When start and end are empty the weekday column may hold the combined form.
func ParseMeeting(weekdays, start, end string) Meeting {
	weekdays = strings.TrimSpace(weekdays)
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	if start == "" && end == "" {
		if weekdays == "" {
			return Meeting{}
		}
		if m := ParseCombinedMeeting(weekdays); m.Scheduled {
			return m
		}
		if days := ExpandDayCodes(weekdays); days != "" {
			return Meeting{Weekdays: days, Scheduled: true}
		}
		return Meeting{}
	}

	days := ExpandDayCodes(weekdays)
	if days == "" {
		days = weekdays
	}
	normStart := NormalizeClock(start)
	if normStart == "" {
		normStart = start
	}
	normEnd := NormalizeClock(end)
	if normEnd == "" {
		normEnd = end
	}
	return Meeting{Weekdays: days, StartTime: normStart, EndTime: normEnd, Scheduled: true}
}
