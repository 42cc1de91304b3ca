package navigation

import (
	"annolist/internal/models"
	"regexp"
	"strconv"
	"time"
)

// DefaultOffset applies when an offset spec does not parse.
var DefaultOffset = Offset{Amount: 5, Unit: 'm'}

var offsetPattern = regexp.MustCompile(`^(\d+)(\w)`)

// maxAmount bounds every unit to roughly ten thousand years.
var maxAmount = map[byte]int{
	's': 10000 * 366 * 86400,
	'm': 10000 * 366 * 1440,
	'h': 10000 * 366 * 24,
	'd': 10000 * 366,
	'D': 10000 * 366,
	'w': 10000 * 53,
	'W': 10000 * 53,
	'M': 10000 * 12,
	'Q': 10000 * 4,
	'y': 10000,
}

var unitSeconds = map[byte]int64{'s': 1, 'm': 60, 'h': 3600}

// Offset is a relative time spec such as "10m" or "2d".
type Offset struct {
	Amount int
	Unit   byte
}

// ParseOffset reads "<integer><unit>". Trailing characters after the unit
// letter are ignored; an unknown unit or an amount past maxAmount falls back
// to DefaultOffset.
func ParseOffset(spec string) Offset {
	parts := offsetPattern.FindStringSubmatch(spec)
	if len(parts) != 3 {
		return DefaultOffset
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return DefaultOffset
	}
	o := Offset{Amount: n, Unit: parts[2][0]}
	if !o.valid() {
		return DefaultOffset
	}
	return o
}

func (o Offset) valid() bool {
	limit, ok := maxAmount[o.Unit]
	return ok && o.Amount >= 0 && o.Amount <= limit
}

// Add shifts t by the offset, sign times. Day and larger units use calendar
// arithmetic in t's location.
func (o Offset) Add(t time.Time, sign int) time.Time {
	if !o.valid() {
		return DefaultOffset.Add(t, sign)
	}
	n := o.Amount * sign
	switch o.Unit {
	case 's', 'm', 'h':
		// whole days go through AddDate so the shift never overflows a Duration
		secs := int64(n) * unitSeconds[o.Unit]
		return t.AddDate(0, 0, int(secs/86400)).Add(time.Duration(secs%86400) * time.Second)
	case 'd', 'D':
		return t.AddDate(0, 0, n)
	case 'w', 'W':
		return t.AddDate(0, 0, 7*n)
	case 'M':
		return addMonths(t, n)
	case 'Q':
		return addMonths(t, 3*n)
	case 'y':
		return addMonths(t, 12*n)
	}
	return t
}

// addMonths clamps to the last day of the target month instead of
// overflowing into the next one (Mar 31 - 1M is Feb 29, not Mar 2).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func (o Offset) String() string {
	return strconv.Itoa(o.Amount) + string(o.Unit)
}

// ResolveOffsetWindow centers a window on centerMs (epoch ms): before is
// subtracted, after is added.
func ResolveOffsetWindow(centerMs int64, before, after string) models.TimeWindow {
	center := time.UnixMilli(centerMs).UTC()
	return models.TimeWindow{
		From: ParseOffset(before).Add(center, -1),
		To:   ParseOffset(after).Add(center, 1),
	}
}
