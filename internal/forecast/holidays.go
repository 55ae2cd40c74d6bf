package forecast

import (
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/mx"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/us"
	"github.com/rickar/cal/v2/za"
)

// fixed builds a public holiday on the same date every year
func fixed(name string, month time.Month, day int) *cal.Holiday {
	return &cal.Holiday{
		Name:  name,
		Type:  cal.ObservancePublic,
		Month: month,
		Day:   day,
		Func:  cal.CalcDayOfMonth,
	}
}

// Countries without a calendar package only carry their solar-date national
// holidays; lunar feasts (Diwali, Lunar New Year, Chuseok) are not listed.
var extraHolidays = map[string][]*cal.Holiday{
	"IN": {
		fixed("Republic Day", time.January, 26),
		fixed("Maharashtra Day", time.May, 1),
		fixed("Independence Day", time.August, 15),
		fixed("Gandhi Jayanti", time.October, 2),
		fixed("Christmas", time.December, 25),
	},
	"CN": {
		fixed("New Year's Day", time.January, 1),
		fixed("Labour Day", time.May, 1),
		fixed("National Day", time.October, 1),
		fixed("National Day Holiday", time.October, 2),
		fixed("National Day Holiday", time.October, 3),
	},
	"HK": {
		fixed("New Year's Day", time.January, 1),
		fixed("Labour Day", time.May, 1),
		fixed("HKSAR Establishment Day", time.July, 1),
		fixed("National Day", time.October, 1),
		fixed("Christmas Day", time.December, 25),
		fixed("Boxing Day", time.December, 26),
	},
	"KR": {
		fixed("New Year's Day", time.January, 1),
		fixed("Independence Movement Day", time.March, 1),
		fixed("Children's Day", time.May, 5),
		fixed("Memorial Day", time.June, 6),
		fixed("Liberation Day", time.August, 15),
		fixed("National Foundation Day", time.October, 3),
		fixed("Hangul Day", time.October, 9),
		fixed("Christmas Day", time.December, 25),
	},
	"TW": {
		fixed("Founding Day", time.January, 1),
		fixed("Peace Memorial Day", time.February, 28),
		fixed("Children's Day", time.April, 4),
		fixed("National Day", time.October, 10),
	},
	"SG": {
		fixed("New Year's Day", time.January, 1),
		fixed("Labour Day", time.May, 1),
		fixed("National Day", time.August, 9),
		fixed("Christmas Day", time.December, 25),
	},
}

// Exchange-level calendars; Australia follows the ASX in New South Wales
var holidaySets = map[string][]*cal.Holiday{
	"US": us.Holidays,
	"GB": gb.Holidays,
	"JP": jp.Holidays,
	"CA": ca.Holidays,
	"AU": au.HolidaysNSW,
	"DE": de.Holidays,
	"FR": fr.Holidays,
	"NL": nl.Holidays,
	"IT": it.Holidays,
	"ES": es.Holidays,
	"CH": ch.Holidays,
	"BR": br.Holidays,
	"MX": mx.Holidays,
	"ZA": za.Holidays,
}

// Holidays answers holiday questions for one country
type Holidays struct {
	cal *cal.Calendar
}

// NewHolidays returns the calendar for an ISO alpha-2 country, or nil when
// none is known
func NewHolidays(country string) *Holidays {
	if !HasHolidays(country) {
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(country))
	set, ok := holidaySets[code]
	if !ok {
		set = extraHolidays[code]
	}
	c := &cal.Calendar{Name: code, Cacheable: true}
	c.AddHoliday(set...)
	return &Holidays{cal: c}
}

// Is reports whether t's date is a holiday or its observed substitute
func (h *Holidays) Is(t time.Time) bool {
	if h == nil {
		return false
	}
	actual, observed, _ := h.cal.IsHoliday(t)
	return actual || observed
}

// Near reports whether t falls on a holiday or on the trading day right
// before or after one. Weekends are skipped when stepping.
func (h *Holidays) Near(t time.Time) bool {
	if h == nil {
		return false
	}
	return h.Is(t) || h.Is(weekday(t, 1)) || h.Is(weekday(t, -1))
}

// weekday steps one day in dir, skipping weekends
func weekday(t time.Time, dir int) time.Time {
	t = t.AddDate(0, 0, dir)
	for cal.IsWeekend(t) {
		t = t.AddDate(0, 0, dir)
	}
	return t
}

// HasHolidays reports whether a holiday calendar exists for country
func HasHolidays(country string) bool {
	code := strings.ToUpper(strings.TrimSpace(country))
	_, ok := holidaySets[code]
	if !ok {
		_, ok = extraHolidays[code]
	}
	return ok
}
