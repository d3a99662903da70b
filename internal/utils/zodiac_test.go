package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(month, day int) time.Time {
	return time.Date(1990, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestZodiacSign(t *testing.T) {
	cases := []struct {
		month, day int
		want       string
	}{
		{1, 1, "capricorn"},
		{1, 19, "capricorn"},
		{1, 20, "aquarius"},
		{3, 21, "aries"},
		{4, 19, "aries"},
		{4, 20, "taurus"},
		{7, 14, "cancer"},
		{8, 22, "leo"},
		{8, 23, "virgo"},
		{11, 21, "scorpio"},
		{11, 22, "sagittarius"},
		{12, 21, "sagittarius"},
		{12, 22, "capricorn"},
		{12, 31, "capricorn"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ZodiacSign(date(tc.month, tc.day)),
			"for %d/%d", tc.day, tc.month)
	}
}
