package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rickar/cal/v2"
)

var ErrStartAfterEnd = errors.New("range start is after end")

// Fixed-date holidays on which the Indian government securities market is closed.
var (
	RepublicDay = &cal.Holiday{
		Name:  "Republic Day",
		Type:  cal.ObservancePublic,
		Month: time.January,
		Day:   26,
		Func:  cal.CalcDayOfMonth,
	}
	MaharashtraDay = &cal.Holiday{
		Name:  "Maharashtra Day",
		Type:  cal.ObservanceBank,
		Month: time.May,
		Day:   1,
		Func:  cal.CalcDayOfMonth,
	}
	IndependenceDay = &cal.Holiday{
		Name:  "Independence Day",
		Type:  cal.ObservancePublic,
		Month: time.August,
		Day:   15,
		Func:  cal.CalcDayOfMonth,
	}
	GandhiJayanti = &cal.Holiday{
		Name:  "Gandhi Jayanti",
		Type:  cal.ObservancePublic,
		Month: time.October,
		Day:   2,
		Func:  cal.CalcDayOfMonth,
	}
	ChristmasDay = &cal.Holiday{
		Name:  "Christmas Day",
		Type:  cal.ObservancePublic,
		Month: time.December,
		Day:   25,
		Func:  cal.CalcDayOfMonth,
	}

	Holidays = []*cal.Holiday{
		RepublicDay,
		MaharashtraDay,
		IndependenceDay,
		GandhiJayanti,
		ChristmasDay,
	}
)

// Calendar decides which dates are G-Sec trading days: weekdays that are not holidays.
// Lunar holidays such as Diwali are not modelled and can be supplied through extra.
type Calendar struct {
	bc       *cal.BusinessCalendar
	holidays []*cal.Holiday
}

func New(extra ...*cal.Holiday) *Calendar {
	holidays := make([]*cal.Holiday, 0, len(Holidays)+len(extra))
	holidays = append(holidays, Holidays...)
	holidays = append(holidays, extra...)

	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(holidays...)
	return &Calendar{bc: bc, holidays: holidays}
}

func (c *Calendar) IsTradingDay(d civil.Date) bool {
	return c.bc.IsWorkday(d.In(time.UTC))
}

// TradingDays lists every trading day between start and end inclusive.
func (c *Calendar) TradingDays(start, end civil.Date) ([]civil.Date, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%s > %s, %w", start, end, ErrStartAfterEnd)
	}
	out := make([]civil.Date, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		if c.IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// OnOrBefore returns d if it is a trading day, otherwise the closest trading day before it.
func (c *Calendar) OnOrBefore(d civil.Date) civil.Date {
	for !c.IsTradingDay(d) {
		d = d.AddDays(-1)
	}
	return d
}

// Event is a named market closure.
type Event struct {
	Name string
	Date civil.Date
}

// Events returns the holiday closures falling between start and end inclusive, sorted by
// date.
func (c *Calendar) Events(start, end civil.Date) []Event {
	events := []Event{}
	for year := start.Year; year <= end.Year; year++ {
		for _, hol := range c.holidays {
			_, observed := hol.Calc(year)
			if observed.IsZero() {
				continue
			}
			d := civil.DateOf(observed)
			if d.Before(start) || d.After(end) {
				continue
			}
			events = append(events, Event{
				Name: strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, year), " ", "_"),
				Date: d,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}
