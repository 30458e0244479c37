package service

import (
	"errors"
	"time"
)

// Recognized import periods.
const (
	PeriodOneDay     = "1_day"
	PeriodSevenDays  = "7_days"
	PeriodThirtyDays = "30_days"
	PeriodTest       = "test"
	PeriodAll        = "all"
	PeriodCustom     = "custom"
)

const defaultPageSize = 100

// ErrMissingCustomBounds is returned when period=custom arrives
// without both dates. Checked before any network call.
var ErrMissingCustomBounds = errors.New("custom period requires both start and end dates")

// Window is the resolved fetch window of one sync pass. A nil bound
// means the parameter is not sent upstream. StopEarly windows fetch
// exactly one page; otherwise the engine paginates until a short page.
type Window struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	PageSize  int
	StopEarly bool
}

// ResolveWindow maps a period keyword (or explicit custom bounds) to a
// concrete window. Unrecognized keywords behave like "all": unbounded,
// fully paginated. Custom bounds expand to the whole calendar days
// (00:00:00 through 23:59:59).
func ResolveWindow(period string, start, end *time.Time) Window {
	now := time.Now()

	switch period {
	case PeriodOneDay:
		from := now.AddDate(0, 0, -1)
		return Window{DateFrom: &from, PageSize: defaultPageSize, StopEarly: true}
	case PeriodSevenDays:
		from := now.AddDate(0, 0, -7)
		return Window{DateFrom: &from, PageSize: defaultPageSize, StopEarly: true}
	case PeriodThirtyDays:
		from := now.AddDate(0, 0, -30)
		return Window{DateFrom: &from, PageSize: defaultPageSize, StopEarly: true}
	case PeriodTest:
		return Window{PageSize: 10, StopEarly: true}
	case PeriodCustom:
		w := Window{PageSize: defaultPageSize, StopEarly: true}
		if start != nil {
			from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			w.DateFrom = &from
		}
		if end != nil {
			to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
			w.DateTo = &to
		}
		return w
	default:
		return Window{PageSize: defaultPageSize, StopEarly: false}
	}
}
