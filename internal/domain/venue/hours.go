package venue

import (
	"strconv"
	"strings"
	"time"
)

// OpenState classifies what the provider's hours text says about today.
type OpenState int

const (
	// OpenUnknown means the hours text was missing or did not parse. The
	// sourcer fails open on it.
	OpenUnknown OpenState = iota
	// OpenToday means at least one open range parsed for today.
	OpenToday
	// ClosedAllDay means the text unambiguously reads as closed for the
	// whole day.
	ClosedAllDay
)

// MinuteRange is an open interval in minutes since midnight. End runs past
// 1440 for overnight ranges.
type MinuteRange struct {
	Start int
	End   int
}

// OpenStatus is the parsed result for a single day.
type OpenStatus struct {
	State  OpenState
	Ranges []MinuteRange
	Raw    string
}

// Label renders a short status string for downstream prompts.
func (s OpenStatus) Label() string {
	switch s.State {
	case ClosedAllDay:
		return "closed today"
	case OpenToday:
		return "open today: " + s.Raw
	default:
		return "hours unknown"
	}
}

var englishDays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ParseTodayHours extracts today's entry from the provider's weekday text and
// parses it. Day selection is positional (the provider orders lines starting
// Monday) so it does not depend on the response locale; an English day-name
// prefix scan covers responses with fewer than seven lines.
func ParseTodayHours(weekdayText []string, weekday time.Weekday) OpenStatus {
	line, ok := todayLine(weekdayText, weekday)
	if !ok {
		return OpenStatus{State: OpenUnknown}
	}
	return parseDayHours(line)
}

func todayLine(weekdayText []string, weekday time.Weekday) (string, bool) {
	if len(weekdayText) == 7 {
		// Monday-first positional index.
		idx := (int(weekday) + 6) % 7
		return stripDayPrefix(weekdayText[idx]), true
	}
	prefix := englishDays[weekday] + ":"
	for _, line := range weekdayText {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return stripDayPrefix(line), true
		}
	}
	return "", false
}

func stripDayPrefix(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}

func parseDayHours(raw string) OpenStatus {
	normalized := normalizeHours(raw)
	if normalized == "" {
		return OpenStatus{State: OpenUnknown, Raw: raw}
	}
	if normalized == "closed" {
		return OpenStatus{State: ClosedAllDay, Raw: raw}
	}
	if strings.Contains(normalized, "24 hours") {
		return OpenStatus{State: OpenToday, Ranges: []MinuteRange{{Start: 0, End: 24 * 60}}, Raw: raw}
	}

	var ranges []MinuteRange
	for _, segment := range strings.Split(normalized, ",") {
		r, ok := parseRange(strings.TrimSpace(segment))
		if !ok {
			// One unparseable segment poisons the whole line: fail open.
			return OpenStatus{State: OpenUnknown, Raw: raw}
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return OpenStatus{State: OpenUnknown, Raw: raw}
	}
	return OpenStatus{State: OpenToday, Ranges: ranges, Raw: raw}
}

func normalizeHours(raw string) string {
	replacer := strings.NewReplacer(
		" ", " ", // thin space
		" ", " ", // narrow no-break space
		" ", " ",
		"–", "-", // en dash
		"—", "-", // em dash
		"‒", "-",
	)
	normalized := strings.ToLower(replacer.Replace(raw))
	return strings.Join(strings.Fields(normalized), " ")
}

func parseRange(segment string) (MinuteRange, bool) {
	parts := strings.Split(segment, "-")
	if len(parts) != 2 {
		return MinuteRange{}, false
	}
	start, startMeridiem, ok := parseClock(strings.TrimSpace(parts[0]))
	if !ok {
		return MinuteRange{}, false
	}
	end, endMeridiem, ok := parseClock(strings.TrimSpace(parts[1]))
	if !ok {
		return MinuteRange{}, false
	}
	// "11:00 - 2:00 pm" leaves the start meridiem implicit.
	if startMeridiem == "" && endMeridiem != "" && start <= end {
		startMeridiem = endMeridiem
	}
	start = applyMeridiem(start, startMeridiem)
	end = applyMeridiem(end, endMeridiem)
	if end <= start {
		// Overnight range such as 6:00 pm - 2:00 am.
		end += 24 * 60
	}
	return MinuteRange{Start: start, End: end}, true
}

// parseClock reads "9", "9:30", "21:00", optionally followed by am/pm, and
// returns minutes since midnight before meridiem adjustment.
func parseClock(text string) (minutes int, meridiem string, ok bool) {
	text = strings.TrimSpace(text)
	for _, suffix := range []string{"am", "a.m.", "pm", "p.m."} {
		if strings.HasSuffix(text, suffix) {
			if strings.HasPrefix(suffix, "a") {
				meridiem = "am"
			} else {
				meridiem = "pm"
			}
			text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
			break
		}
	}
	hourText, minuteText, found := strings.Cut(text, ":")
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 24 {
		return 0, "", false
	}
	minute := 0
	if found {
		minute, err = strconv.Atoi(minuteText)
		if err != nil || minute < 0 || minute > 59 {
			return 0, "", false
		}
	}
	if meridiem != "" && (hour < 1 || hour > 12) {
		return 0, "", false
	}
	return hour*60 + minute, meridiem, true
}

func applyMeridiem(minutes int, meridiem string) int {
	hour := minutes / 60
	switch meridiem {
	case "am":
		if hour == 12 {
			minutes -= 12 * 60
		}
	case "pm":
		if hour != 12 {
			minutes += 12 * 60
		}
	}
	return minutes
}
