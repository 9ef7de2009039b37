package domain

import (
	"sort"
	"time"
)

// Entry is one visual block on the weekly grid.
type Entry struct {
	Section Section `json:"section"`
	Session Session `json:"session"`
	Track   int     `json:"trackIndex"`
	Locked  bool    `json:"locked"`
}

type DayLayout struct {
	Day          time.Weekday `json:"day"`
	Entries      []Entry      `json:"entries"`
	NeededTracks int          `json:"neededTracks"`
}

type Week struct {
	Days []DayLayout `json:"days"`
}

var WeekOrder = [...]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// LayoutDay assigns every entry of a single day to a track so that entries
// sharing a track never overlap. Entries are ordered by start time, longer
// first on ties, and each takes the lowest track that is free at its start.
// The input slice is not modified; the result is in placement order.
// Equal keys keep their input order, so the result is reproducible.
func LayoutDay(entries []Entry) ([]Entry, int) {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Session, out[j].Session
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.Duration() > b.Duration()
	})

	var trackEnd []int
	for i := range out {
		start := out[i].Session.StartMinute

		track := -1
		for t, end := range trackEnd {
			if end <= start {
				track = t
				break
			}
		}
		if track < 0 {
			track = len(trackEnd)
			trackEnd = append(trackEnd, 0)
		}

		trackEnd[track] = out[i].Session.EndMinute
		out[i].Track = track
	}

	return out, len(trackEnd)
}

// LayoutWeek groups entries by day and lays out each day independently.
// Days without entries are present with zero tracks.
func LayoutWeek(entries []Entry) Week {
	byDay := make(map[time.Weekday][]Entry)
	for _, e := range entries {
		byDay[e.Session.Day] = append(byDay[e.Session.Day], e)
	}

	week := Week{Days: make([]DayLayout, 0, len(WeekOrder))}
	for _, day := range WeekOrder {
		laid, needed := LayoutDay(byDay[day])
		week.Days = append(week.Days, DayLayout{
			Day:          day,
			Entries:      laid,
			NeededTracks: needed,
		})
	}
	return week
}
