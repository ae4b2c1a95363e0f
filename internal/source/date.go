package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// minTitleRunes is the shortest visible text accepted as a scraped title.
// Anything shorter is a navigation link ("More", "一覧へ") rather than an
// announcement.
const minTitleRunes = 8

// dateTokenRe matches YYYY.M.D-shaped tokens. Dots are the usual form on
// the target pages; dashes and slashes show up on a few, so all three
// separators are accepted.
var dateTokenRe = regexp.MustCompile(`(20\d{2})[.\-/](\d{1,2})[.\-/](\d{1,2})`)

// parseDateToken extracts the first date token in text. ok is false when no
// token is present or the token does not name a real calendar day.
func parseDateToken(text string) (time.Time, bool) {
	m := dateTokenRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		// time.Date normalizes 2025.13.45 into a different day; reject it.
		return time.Time{}, false
	}
	return t, true
}

// categoryRe matches one short bracketed tag, ASCII or fullwidth.
var categoryRe = regexp.MustCompile(`[\[【]([^\]】]{1,20})[\]】]`)

// parseCategoryTag extracts a bracketed category like [イベント] or
// 【お知らせ】 from text. Empty when no tag is present.
func parseCategoryTag(text string) string {
	m := categoryRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// stripCategoryTags removes every bracketed tag from text.
func stripCategoryTags(text string) string {
	return strings.TrimSpace(categoryRe.ReplaceAllString(text, " "))
}

// longEnoughTitle reports whether text is plausibly an item title rather
// than a navigation link.
func longEnoughTitle(text string) bool {
	return utf8.RuneCountInString(text) >= minTitleRunes
}
