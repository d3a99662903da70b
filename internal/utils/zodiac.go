package utils

import "time"

type zodiacRange struct {
	sign       string
	month, day int // range start
}

// Ranges in year order; each entry starts the sign that runs until the
// next entry. Capricorn wraps the year boundary.
var zodiacRanges = []zodiacRange{
	{"capricorn", 1, 1},
	{"aquarius", 1, 20},
	{"pisces", 2, 19},
	{"aries", 3, 21},
	{"taurus", 4, 20},
	{"gemini", 5, 21},
	{"cancer", 6, 21},
	{"leo", 7, 23},
	{"virgo", 8, 23},
	{"libra", 9, 23},
	{"scorpio", 10, 23},
	{"sagittarius", 11, 22},
	{"capricorn", 12, 22},
}

// ZodiacSign returns the western zodiac sign for a birth date.
func ZodiacSign(birthDate time.Time) string {
	month := int(birthDate.Month())
	day := birthDate.Day()

	sign := zodiacRanges[0].sign
	for _, r := range zodiacRanges {
		if month > r.month || (month == r.month && day >= r.day) {
			sign = r.sign
		}
	}
	return sign
}
