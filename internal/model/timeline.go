package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Duration is a non-negative hours/minutes/seconds span, validated the way
// time_line_settings.rs validates its own Duration type.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewDuration validates and constructs a Duration.
func NewDuration(hours, minutes, seconds int) (Duration, error) {
	if hours < 0 {
		return Duration{}, eris.New("hours should be non-negative")
	}
	if minutes < 0 {
		return Duration{}, eris.New("minutes should be non-negative")
	}
	if seconds < 0 {
		return Duration{}, eris.New("seconds should be non-negative")
	}
	return Duration{Hours: hours, Minutes: minutes, Seconds: seconds}, nil
}

// ToTimeDuration converts to a time.Duration.
func (d Duration) ToTimeDuration() time.Duration {
	return time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
}

// TimeLineSettings pairs a total duration with a step, both bounded per
// §3.1: duration <= 24h, step <= duration.
type TimeLineSettings struct {
	Duration Duration `json:"duration"`
	Step     Duration `json:"step"`
}

// DefaultTimeLineSettings mirrors the 4h/15m default in time_line_settings.rs.
func DefaultTimeLineSettings() TimeLineSettings {
	duration, _ := NewDuration(4, 0, 0)
	step, _ := NewDuration(0, 15, 0)
	return TimeLineSettings{Duration: duration, Step: step}
}

// NewTimeLineSettings validates and constructs a TimeLineSettings.
func NewTimeLineSettings(duration, step Duration) (TimeLineSettings, error) {
	tl := TimeLineSettings{Duration: duration, Step: step}
	if err := tl.Validate(); err != nil {
		return TimeLineSettings{}, err
	}
	return tl, nil
}

// Validate enforces duration <= 24h and step <= duration.
func (tl TimeLineSettings) Validate() error {
	if tl.Duration.ToTimeDuration() > 24*time.Hour {
		return eris.New("time line duration should not exceed 24 hours")
	}
	if tl.Step.ToTimeDuration() > tl.Duration.ToTimeDuration() {
		return eris.New("time line step should not exceed duration")
	}
	return nil
}

// SetDuration validates the new duration against the current step before
// assigning it, mirroring set_duration.
func (tl *TimeLineSettings) SetDuration(duration Duration) error {
	if duration.ToTimeDuration() > 24*time.Hour {
		return eris.New("time line duration should not exceed 24 hours")
	}
	if tl.Step.ToTimeDuration() > duration.ToTimeDuration() {
		return eris.New("time line step should not exceed duration")
	}
	tl.Duration = duration
	return nil
}

// SetStep validates the new step against the current duration before
// assigning it, mirroring set_step.
func (tl *TimeLineSettings) SetStep(step Duration) error {
	if step.ToTimeDuration() > tl.Duration.ToTimeDuration() {
		return eris.New("time line step should not exceed duration")
	}
	tl.Step = step
	return nil
}

// Materialize produces the strictly increasing time line
// T = {t0, t1, ..., tn} with t(i+1) - t(i) == step, per spec §4.1.
func Materialize(start time.Time, tl TimeLineSettings) []time.Time {
	step := tl.Step.ToTimeDuration()
	duration := tl.Duration.ToTimeDuration()
	if step <= 0 {
		return []time.Time{start}
	}
	n := int(duration / step)
	line := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		line = append(line, start.Add(time.Duration(i)*step))
	}
	return line
}

// StartTimePresetKind names the three predefined start-time presets
// supplemented from time_line_settings.rs's StartTimePreset union.
type StartTimePresetKind string

const (
	StartTimePresetCurrentHour StartTimePresetKind = "CurrentHour"
	StartTimePresetNow         StartTimePresetKind = "Now"
	StartTimePresetNextHour    StartTimePresetKind = "NextHour"
)

// CalculateStartTimePreset resolves a preset name against the clock
// supplied by now (a seam so callers can test against a fixed instant).
func CalculateStartTimePreset(kind StartTimePresetKind, now time.Time) (time.Time, bool) {
	switch kind {
	case StartTimePresetCurrentHour:
		return now.Truncate(time.Hour), true
	case StartTimePresetNow:
		return now, true
	case StartTimePresetNextHour:
		return now.Truncate(time.Hour).Add(time.Hour), true
	default:
		return time.Time{}, false
	}
}
