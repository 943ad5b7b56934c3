// Package schedule drives optional time-of-day playlist switching. A
// channel with no configured schedule is untouched; one with a schedule
// gets the same PlayPlaylist call a host would have issued, fired only
// when the time-of-day tag actually changes.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TimeTag names a block of the broadcast day.
type TimeTag string

const (
	TagMorning   TimeTag = "morning"
	TagAfternoon TimeTag = "afternoon"
	TagEvening   TimeTag = "evening"
	TagNight     TimeTag = "night"
)

// ValidTimeTags lists every accepted tag, in broadcast-day order.
var ValidTimeTags = []TimeTag{TagMorning, TagAfternoon, TagEvening, TagNight}

// IsValidTimeTag reports whether s names a known time tag.
func IsValidTimeTag(s string) bool {
	for _, t := range ValidTimeTags {
		if string(t) == s {
			return true
		}
	}
	return false
}

// TimeTagForHour maps an hour of day (0-23) to its tag.
func TimeTagForHour(hour int) TimeTag {
	switch {
	case hour >= 6 && hour < 12:
		return TagMorning
	case hour >= 12 && hour < 18:
		return TagAfternoon
	case hour >= 18 && hour < 21:
		return TagEvening
	default:
		return TagNight
	}
}

// Switcher receives the playlist switch a tag transition calls for. Wired
// to Channel.PlayPlaylist through the service at startup.
type Switcher func(channel, playlist string)

// Scheduler polls the clock and, on every time-tag transition, switches
// each scheduled channel to the playlist its schedule names for the new
// tag. Channels without a schedule are never touched.
type Scheduler struct {
	switcher Switcher
	interval time.Duration
	location *time.Location
	now      func() time.Time

	mu        sync.Mutex
	schedules map[string]map[TimeTag]string
	lastTag   TimeTag
}

// New creates a Scheduler that fires switcher on tag transitions, polling
// every interval. loc defaults to UTC.
func New(switcher Switcher, interval time.Duration, loc *time.Location) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		switcher:  switcher,
		interval:  interval,
		location:  loc,
		now:       time.Now,
		schedules: make(map[string]map[TimeTag]string),
	}
	s.lastTag = s.currentTag()
	return s
}

// SetSchedule assigns (or replaces) a channel's tag -> playlist schedule.
// The new schedule takes effect immediately: if the current tag names a
// playlist, the switch fires now rather than waiting for the next
// transition.
func (s *Scheduler) SetSchedule(channel string, schedule map[TimeTag]string) error {
	for tag := range schedule {
		if !IsValidTimeTag(string(tag)) {
			return fmt.Errorf("schedule: invalid time tag %q", tag)
		}
	}

	cp := make(map[TimeTag]string, len(schedule))
	for tag, playlist := range schedule {
		cp[tag] = playlist
	}

	s.mu.Lock()
	s.schedules[channel] = cp
	tag := s.currentTag()
	playlist, ok := cp[tag]
	s.mu.Unlock()

	if ok && s.switcher != nil {
		s.switcher(channel, playlist)
	}
	return nil
}

// RemoveSchedule detaches a channel from automatic switching.
func (s *Scheduler) RemoveSchedule(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schedules, channel)
}

// Schedule returns a copy of the channel's schedule, if one is set.
func (s *Scheduler) Schedule(channel string) (map[TimeTag]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[channel]
	if !ok {
		return nil, false
	}
	cp := make(map[TimeTag]string, len(sched))
	for tag, playlist := range sched {
		cp[tag] = playlist
	}
	return cp, true
}

// LastTag returns the most recently observed time tag.
func (s *Scheduler) LastTag() TimeTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTag
}

// Start runs the polling loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("schedule: scheduler started", "interval", s.interval, "initial_tag", s.lastTag)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("schedule: scheduler stopping")
			return
		case <-ticker.C:
			s.check()
		}
	}
}

// check performs one tag evaluation and fires the switcher for every
// scheduled channel if a transition occurred.
func (s *Scheduler) check() {
	s.mu.Lock()
	tag := s.currentTag()
	if tag == s.lastTag {
		s.mu.Unlock()
		return
	}
	previous := s.lastTag
	s.lastTag = tag

	type pending struct{ channel, playlist string }
	var fires []pending
	for channel, sched := range s.schedules {
		if playlist, ok := sched[tag]; ok {
			fires = append(fires, pending{channel, playlist})
		}
	}
	s.mu.Unlock()

	slog.Info("schedule: time-tag transition", "previous", previous, "new", tag)
	if s.switcher == nil {
		return
	}
	for _, f := range fires {
		slog.Info("schedule: switching channel", "channel", f.channel, "playlist", f.playlist, "tag", tag)
		s.switcher(f.channel, f.playlist)
	}
}

func (s *Scheduler) currentTag() TimeTag {
	return TimeTagForHour(s.now().In(s.location).Hour())
}
