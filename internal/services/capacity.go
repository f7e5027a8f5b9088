package services

import (
	"strings"
	"time"

	"cycle-planner/internal/models"
)

const velocityWindow = 3 // trailing periods averaged for velocity

// Estimator turns an effort total into a scheduling estimate for a team.
type Estimator struct {
	defaultVelocity float64
	periodsPerCycle int
}

// NewEstimator creates an estimator. defaultVelocity is used for teams with
// no velocity history; values <= 0 fall back to 20. periodsPerCycle is the
// number of sprints in one planning cycle; values <= 0 fall back to 3.
func NewEstimator(defaultVelocity float64, periodsPerCycle int) *Estimator {
	if defaultVelocity <= 0 {
		defaultVelocity = 20
	}
	if periodsPerCycle <= 0 {
		periodsPerCycle = 3
	}
	return &Estimator{defaultVelocity: defaultVelocity, periodsPerCycle: periodsPerCycle}
}

// Velocity averages the trailing completed-effort samples, floored at 1 so
// later divisions are safe. Fewer samples than the window average over what
// exists; none at all yields the configured default.
func (e *Estimator) Velocity(team models.TeamCapacityProfile) float64 {
	samples := team.VelocitySamples
	if len(samples) == 0 {
		return e.defaultVelocity
	}
	if len(samples) > velocityWindow {
		samples = samples[len(samples)-velocityWindow:]
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	avg := sum / float64(len(samples))
	if avg < 1 {
		return 1
	}
	return avg
}

// Estimate combines total effort with the team's velocity, headcount and
// time off for the period. PersonPeriodsValid is false for a team with no
// configured headcount; that is "not applicable", distinct from zero.
func (e *Estimator) Estimate(totalEffort float64, team models.TeamCapacityProfile, period models.DateRange, timeOff []models.TimeOffRecord) models.Estimate {
	velocity := e.Velocity(team)

	est := models.Estimate{
		Velocity:      velocity,
		PeriodsNeeded: totalEffort / velocity,
	}

	if team.Headcount > 0 {
		est.PersonPeriods = est.PeriodsNeeded * float64(team.Headcount)
		est.PersonPeriodsValid = true

		est.PTOReduction = PTOReduction(team, period, timeOff)
		est.TargetPersonPeriods = float64(team.Headcount) * float64(e.periodsPerCycle) * (1 - est.PTOReduction)

		if est.TargetPersonPeriods > 0 {
			est.BufferPercent = (est.TargetPersonPeriods - est.PersonPeriods) / est.TargetPersonPeriods * 100
		}
	}

	return est
}

// PTOReduction is the fraction of the team's working-day capacity in the
// period consumed by roster members' time off, capped at 1.
func PTOReduction(team models.TeamCapacityProfile, period models.DateRange, timeOff []models.TimeOffRecord) float64 {
	if team.Headcount == 0 || period.Start.IsZero() || period.End.IsZero() {
		return 0
	}

	rangeDays := WorkingDays(period.Start, period.End)
	if rangeDays == 0 {
		return 0
	}

	roster := make(map[string]bool, len(team.Roster))
	for _, member := range team.Roster {
		roster[normalizeName(member)] = true
	}

	var offDays int
	for _, record := range timeOff {
		if !roster[normalizeName(record.Member)] {
			continue
		}
		offDays += overlapWorkingDays(record, period)
	}

	reduction := float64(offDays) / (float64(team.Headcount) * float64(rangeDays))
	if reduction > 1 {
		return 1
	}
	return reduction
}

// WorkingDays counts the weekdays from start through end, inclusive.
// Weekends never count.
func WorkingDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

func overlapWorkingDays(record models.TimeOffRecord, period models.DateRange) int {
	start := record.Start
	if period.Start.After(start) {
		start = period.Start
	}
	end := record.End
	if period.End.Before(end) {
		end = period.End
	}
	return WorkingDays(start, end)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
