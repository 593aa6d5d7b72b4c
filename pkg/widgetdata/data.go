package widgetdata

import (
	"fmt"
	"time"
)

// Kind identifies a widget in the stats widget bundle.
type Kind string

const (
	KindToday      Kind = "today"
	KindThisWeek   Kind = "this_week"
	KindAllTime    Kind = "all_time"
	KindLockScreen Kind = "lock_screen"
)

// Kinds returns the widgets offered by the bundle. Lock screen widgets are
// only offered by the Jetpack app.
func Kinds(isJetpack bool) []Kind {
	kinds := []Kind{KindToday, KindThisWeek, KindAllTime}
	if isJetpack {
		kinds = append(kinds, KindLockScreen)
	}
	return kinds
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindToday, KindThisWeek, KindAllTime, KindLockScreen:
		return k, nil
	}
	return "", fmt.Errorf("unknown widget kind %q", s)
}

// PayloadKind returns the kind whose cached payload backs k. Lock screen
// widgets render today's stats.
func (k Kind) PayloadKind() Kind {
	if k == KindLockScreen {
		return KindToday
	}
	return k
}

// Site is the per-site header shared by every widget payload.
type Site struct {
	SiteID   int       `json:"siteID"`
	SiteName string    `json:"siteName"`
	URL      string    `json:"url"`
	TimeZone string    `json:"timeZone"` // IANA name
	Date     time.Time `json:"date"`
}

// Location resolves TimeZone, falling back to UTC for unknown names.
func (s Site) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Payload is cached display data for one widget kind.
type Payload interface {
	WidgetKind() Kind
	SiteInfo() Site
}

// TodayStats are the counters shown by the today widget.
type TodayStats struct {
	Views    int `json:"views"`
	Visitors int `json:"visitors"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// TodayData backs the today and lock screen widgets.
type TodayData struct {
	Site
	Stats TodayStats `json:"stats"`
}

func (TodayData) WidgetKind() Kind  { return KindToday }
func (d TodayData) SiteInfo() Site { return d.Site }

// DailyStat is one day in the this-week widget.
type DailyStat struct {
	Date               time.Time `json:"date"`
	Views              int       `json:"views"`
	DailyChangeViews   int       `json:"dailyChangeViews"`
	DailyChangePercent float64   `json:"dailyChangePercent"`
}

// ThisWeekStats holds the most recent days, newest first.
type ThisWeekStats struct {
	Days []DailyStat `json:"days"`
}

// ThisWeekData backs the this-week widget.
type ThisWeekData struct {
	Site
	Stats ThisWeekStats `json:"stats"`
}

func (ThisWeekData) WidgetKind() Kind  { return KindThisWeek }
func (d ThisWeekData) SiteInfo() Site { return d.Site }

// AllTimeStats are the lifetime counters.
type AllTimeStats struct {
	Views     int `json:"views"`
	Visitors  int `json:"visitors"`
	Posts     int `json:"posts"`
	BestViews int `json:"bestViews"`
}

// AllTimeData backs the all-time widget.
type AllTimeData struct {
	Site
	Stats AllTimeStats `json:"stats"`
}

func (AllTimeData) WidgetKind() Kind  { return KindAllTime }
func (d AllTimeData) SiteInfo() Site { return d.Site }
