package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "الصفحة 1 من (المجموع) 11848 (من 5-1) جزء"
	totalPagesRe  = regexp.MustCompile(`من\s*\(المجموع\)\s*(\d+)`)
	currentPageRe = regexp.MustCompile(`الصفحة\s*(\d+)`)

	arabicDigits = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
)

// PageInfo is what the pagination banner says about the result set.
type PageInfo struct {
	Current int
	Total   int
}

// ParsePageInfo reads the pagination banner text. ok is false when the
// banner carries no total.
func ParsePageInfo(text string) (info PageInfo, ok bool) {
	text = arabicDigits.Replace(text)

	m := totalPagesRe.FindStringSubmatch(text)
	if m == nil {
		return PageInfo{}, false
	}
	total, err := strconv.Atoi(m[1])
	if err != nil {
		return PageInfo{}, false
	}
	info.Total = total

	if m := currentPageRe.FindStringSubmatch(text); m != nil {
		if current, err := strconv.Atoi(m[1]); err == nil {
			info.Current = current
		}
	}

	return info, true
}
