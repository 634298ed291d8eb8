package analytics

import (
	"sort"
	"time"

	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
)

// day holds the non-null order amounts of one calendar day.
type day struct {
	Date    time.Time
	Amounts []float64
}

func (d day) total() float64 {
	t := 0.0
	for _, a := range d.Amounts {
		t += a
	}
	return t
}

// groupByDay buckets rows by the calendar day of their date. Rows without a
// parsed date are skipped. Days are returned in ascending order.
func groupByDay(ds *dataset.Dataset) []day {
	// keyed by calendar date; time.Time keys compare zone pointers
	idx := map[int]int{}
	var days []day
	for i := 0; i < ds.Len(); i++ {
		t, ok := ds.Value(i, schema.FieldDate).Date()
		if !ok {
			continue
		}
		y, m, d := t.Date()
		key := y*10000 + int(m)*100 + d
		j, seen := idx[key]
		if !seen {
			j = len(days)
			idx[key] = j
			days = append(days, day{Date: dataset.Day(t)})
		}
		if a, ok := ds.Value(i, schema.FieldTotalAmount).Float(); ok {
			days[j].Amounts = append(days[j].Amounts, a)
		}
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Date.Before(days[b].Date) })
	return days
}

// weekday numbers days from Monday = 0.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
