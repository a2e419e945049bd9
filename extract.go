package main

import (
	"regexp"
	"strings"
)

var (
	narrativeTimeRe   = regexp.MustCompile(`(\d{1,2}\s*:\s*\d{1,2})`)
	timeSpacesRe      = regexp.MustCompile(`\s*:\s*`)
	siteParenRe       = regexp.MustCompile(`Nơi SX:\s*I-MBP\s*\((.*?)\)`)
	lineMachineIRe    = regexp.MustCompile(`(\d+)I`)
	lineMachineIEndRe = regexp.MustCompile(`(\d+)I\b`)
	narrativeDateRe   = regexp.MustCompile(`Ngày SX:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	brandRe           = regexp.MustCompile(`(Omachi|Kokomi)`)
	packagingRe       = regexp.MustCompile(`\d+\s*gói\s*x\s*\d+\s*gr`)
)

const bareSiteMarker = "Nơi SX: MBP"

// ProductionInfo is what the extractor could confidently pull out of a
// complaint narrative. Line is 0 and Machine is -1 when absent.
type ProductionInfo struct {
	TimeRaw string
	Time    TimeOfDay
	HasTime bool
	Line    int
	Machine int
}

// ExtractProductionInfo parses a free-text narrative for the production
// time, line and machine. Patterns are tried in priority order and the
// first structurally valid hit wins per field; it never fails, it just
// leaves fields unset.
func ExtractProductionInfo(text string) ProductionInfo {
	info := ProductionInfo{Machine: -1}
	text = strings.TrimSpace(text)

	// The time token is canonical wherever it appears, with whitespace
	// around the colon tolerated ("23 :12" -> "23:12").
	var rawTime string
	if m := narrativeTimeRe.FindString(text); m != "" {
		rawTime = m
		info.TimeRaw = timeSpacesRe.ReplaceAllString(m, ":")
		if t, ok := ParseTime(info.TimeRaw); ok {
			info.Time = t
			info.HasTime = true
		}
	}

	if paren := siteParenRe.FindStringSubmatch(text); paren != nil {
		content := strings.TrimSpace(paren[1])

		// A two-digit token right after the time is line+machine.
		if info.TimeRaw != "" {
			if line, machine, ok := lineMachineAfterTime(content, info.TimeRaw); ok {
				info.Line, info.Machine = line, machine
				return info
			}
			if rawTime != info.TimeRaw {
				if line, machine, ok := lineMachineAfterTime(content, rawTime); ok {
					info.Line, info.Machine = line, machine
					return info
				}
			}
		}

		// Otherwise look for "<digits>I" with the time stripped out first.
		stripped := content
		if info.TimeRaw != "" {
			stripped = strings.TrimSpace(strings.ReplaceAll(stripped, info.TimeRaw, ""))
			if rawTime != info.TimeRaw {
				stripped = strings.TrimSpace(strings.ReplaceAll(stripped, rawTime, ""))
			}
		}
		if m := lineMachineIRe.FindStringSubmatch(stripped); m != nil {
			info.Line, info.Machine = splitLineMachine(m[1])
		}
	}

	if info.Line == 0 {
		for _, m := range lineMachineIEndRe.FindAllStringSubmatch(text, -1) {
			if line, machine := splitLineMachine(m[1]); line != 0 {
				info.Line, info.Machine = line, machine
				break
			}
		}
	}

	// Last resort: a site marker without parentheses; scan a window of
	// text around it.
	if info.Line == 0 {
		if pos := strings.Index(text, bareSiteMarker); pos >= 0 {
			start := pos - 20
			if start < 0 {
				start = 0
			}
			end := pos + 50
			if end > len(text) {
				end = len(text)
			}
			window := text[start:end]

			if info.TimeRaw != "" {
				if line, machine, ok := lineMachineAfterTime(window, info.TimeRaw); ok {
					info.Line, info.Machine = line, machine
					return info
				}
			}
			if m := lineMachineIRe.FindStringSubmatch(window); m != nil {
				info.Line, info.Machine = splitLineMachine(m[1])
			}
		}
	}

	return info
}

func lineMachineAfterTime(content, timeStr string) (int, int, bool) {
	re, err := regexp.Compile(regexp.QuoteMeta(timeStr) + `\s+(\d{2})`)
	if err != nil {
		return 0, -1, false
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return 0, -1, false
	}
	first := int(m[1][0] - '0')
	second := int(m[1][1] - '0')
	if first < 1 || first > 8 {
		return 0, -1, false
	}
	return first, second, true
}

// splitLineMachine interprets a digit run before "I": one digit is a bare
// line, two or more is line then machine. The whole run is rejected when
// the line digit falls outside 1-8.
func splitLineMachine(digits string) (int, int) {
	if len(digits) == 1 {
		d := int(digits[0] - '0')
		if d >= 1 && d <= 8 {
			return d, -1
		}
		return 0, -1
	}
	first := int(digits[0] - '0')
	if first < 1 || first > 8 {
		return 0, -1
	}
	return first, int(digits[1] - '0')
}

// ExtractCorrectDate pulls an embedded "Ngày SX: DD/MM/YYYY" out of the
// narrative; when present it overrides the production date column.
func ExtractCorrectDate(text string) string {
	if m := narrativeDateRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractShortProductName keeps the brand and flavor, dropping packaging
// like "30gói x 90gr".
func ExtractShortProductName(fullName string) string {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return ""
	}
	brand := brandRe.FindStringIndex(fullName)
	if brand == nil {
		return fullName
	}
	if pkg := packagingRe.FindStringIndex(fullName); pkg != nil && pkg[0] > brand[0] {
		return strings.TrimSpace(fullName[brand[0]:pkg[0]])
	}
	return strings.TrimSpace(fullName[brand[0]:])
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\s|-)(\d{4}[\s\-.]?\d{3}[\s\-.]?\d{3})`),
	regexp.MustCompile(`(?:^|\s|-)(\d{3}[\s\-.]?\d{3}[\s\-.]?\d{4})`),
	regexp.MustCompile(`(?:^|\s|-)(0\d{9,10})`),
	regexp.MustCompile(`(?:^|\s|-)(0\d{8,9})`),
}

var phoneCleanRe = regexp.MustCompile(`[\s\-.]`)
var phoneFallbackRe = regexp.MustCompile(`0\d{9,10}`)

var mobilePrefixes = []string{
	"090", "091", "092", "093", "094", "095", "096", "097", "098", "099",
	"070", "076", "077", "078", "079",
	"081", "082", "083", "084", "085", "088",
	"056", "058", "059",
	"032", "033", "034", "035", "036", "037", "038", "039",
	"020", "021", "022", "024", "025", "026", "027", "028", "029",
}

// ExtractPhoneNumber finds a Vietnamese phone number in complaint text.
func ExtractPhoneNumber(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range phonePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			number := phoneCleanRe.ReplaceAllString(m[1], "")
			if !strings.HasPrefix(number, "0") || len(number) < 9 || len(number) > 11 {
				continue
			}
			if hasAnyPrefix(number, mobilePrefixes) || len(number) >= 10 {
				return number
			}
		}
	}
	for _, m := range phoneFallbackRe.FindAllString(text, -1) {
		if len(m) >= 10 && len(m) <= 11 {
			return m
		}
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
