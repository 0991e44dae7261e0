package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"healthsync.ai/companion/internal/observe"
)

const (
	DefaultWaterGoal    = 8
	DefaultStepGoal     = 5000
	DefaultSleepQuality = "Not recorded"

	sensorStepsMin = 50
	sensorStepsMax = 200
)

type HealthState struct {
	WaterIntake  int       `json:"water_intake"`
	WaterGoal    int       `json:"water_goal"`
	SleepMinutes int       `json:"sleep_minutes"`
	SleepQuality string    `json:"sleep_quality"`
	StepCount    int       `json:"step_count"`
	StepGoal     int       `json:"step_goal"`
	CurrentDate  time.Time `json:"current_date"`
}

// FormattedSleep renders the sleep duration as "{h}h {m}m".
func (s HealthState) FormattedSleep() string {
	return fmt.Sprintf("%dh %dm", s.SleepMinutes/60, s.SleepMinutes%60)
}

type HealthTrackerOption func(*HealthTracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) HealthTrackerOption {
	return func(t *HealthTracker) { t.now = now }
}

// WithStepSource replaces the random source used by SimulateSensorUpdates.
// intN must return a value in [0, n).
func WithStepSource(intN func(n int) int) HealthTrackerOption {
	return func(t *HealthTracker) { t.intN = intN }
}

// HealthTracker holds the daily water, sleep and step counters.
type HealthTracker struct {
	state *observe.Value[HealthState]
	now   func() time.Time
	intN  func(n int) int
}

func NewHealthTracker(opts ...HealthTrackerOption) *HealthTracker {
	t := &HealthTracker{now: time.Now, intN: rand.IntN}
	for _, opt := range opts {
		opt(t)
	}
	t.state = observe.NewValue(HealthState{
		WaterGoal:    DefaultWaterGoal,
		SleepQuality: DefaultSleepQuality,
		StepGoal:     DefaultStepGoal,
		CurrentDate:  startOfDay(t.now()),
	})
	return t
}

func (t *HealthTracker) State() *observe.Value[HealthState] {
	return t.state
}

func (t *HealthTracker) Snapshot() HealthState {
	return t.state.Get()
}

// SeedPreview loads sample values for demos.
func (t *HealthTracker) SeedPreview() {
	t.state.Update(func(s HealthState) HealthState {
		s.WaterIntake = min(4, s.WaterGoal)
		s.SleepMinutes = 7*60 + 30
		s.SleepQuality = "Good"
		s.StepCount = 2345
		return s
	})
}

// AddWater adds glasses, clamping the total to the goal.
func (t *HealthTracker) AddWater(glasses int) HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.WaterIntake = max(min(s.WaterIntake+glasses, s.WaterGoal), 0)
		return s
	})
}

func (t *HealthTracker) ResetWater() HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.WaterIntake = 0
		return s
	})
}

// SetWaterGoal accepts any value; intake is pulled down to stay within it.
func (t *HealthTracker) SetWaterGoal(glasses int) HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.WaterGoal = glasses
		s.WaterIntake = max(min(s.WaterIntake, glasses), 0)
		return s
	})
}

// LogSleep replaces the recorded sleep; it does not accumulate.
func (t *HealthTracker) LogSleep(hours, minutes int, quality string) HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.SleepMinutes = max(hours*60+minutes, 0)
		s.SleepQuality = quality
		return s
	})
}

func (t *HealthTracker) AddSteps(steps int) HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.StepCount = max(s.StepCount+steps, 0)
		return s
	})
}

func (t *HealthTracker) ResetSteps() HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.StepCount = 0
		return s
	})
}

func (t *HealthTracker) SetStepGoal(steps int) HealthState {
	return t.state.Update(func(s HealthState) HealthState {
		s.StepGoal = steps
		return s
	})
}

func (t *HealthTracker) FormattedSleep() string {
	return t.state.Get().FormattedSleep()
}

// SimulateSensorUpdates stands in for a pedometer, adding 50-200 steps.
func (t *HealthTracker) SimulateSensorUpdates() HealthState {
	return t.AddSteps(sensorStepsMin + t.intN(sensorStepsMax-sensorStepsMin+1))
}

// Rollover starts a new day when the clock has passed CurrentDate: water,
// sleep and steps reset, goals are kept. It reports whether a reset happened.
func (t *HealthTracker) Rollover() bool {
	today := startOfDay(t.now())
	rolled := false
	t.state.Update(func(s HealthState) HealthState {
		if !today.After(s.CurrentDate) {
			return s
		}
		rolled = true
		return HealthState{
			WaterGoal:    s.WaterGoal,
			SleepQuality: DefaultSleepQuality,
			StepGoal:     s.StepGoal,
			CurrentDate:  today,
		}
	})
	return rolled
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
