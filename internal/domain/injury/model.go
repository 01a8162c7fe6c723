package injury

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Status is the closed injury vocabulary. Anything a source reports is
// coerced into one of these before persistence.
type Status string

const (
	StatusOut          Status = "Out"
	StatusQuestionable Status = "Questionable"
	StatusProbable     Status = "Probable"
	StatusAvailable    Status = "Available"
	StatusDayToDay     Status = "Day-To-Day"
)

var validStatuses = map[Status]struct{}{
	StatusOut:          {},
	StatusQuestionable: {},
	StatusProbable:     {},
	StatusAvailable:    {},
	StatusDayToDay:     {},
}

var statusSynonyms = map[string]Status{
	"doubtful": StatusQuestionable,
	"dtd":      StatusDayToDay,
	"injured":  StatusOut,
	"healthy":  StatusAvailable,
}

// NormalizeStatus maps a free-text status onto the vocabulary. Unknown
// values fall back to the most conservative reading, Questionable.
func NormalizeStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StatusQuestionable
	}

	if mapped, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return mapped
	}

	titled := titleCase(trimmed)
	if _, ok := validStatuses[Status(titled)]; ok {
		return Status(titled)
	}

	return StatusQuestionable
}

// titleCase capitalizes the letter after any non-letter, so hyphenated
// statuses like "day-to-day" round-trip to "Day-To-Day".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range strings.Join(strings.Fields(strings.ToLower(s)), " ") {
		if unicode.IsLetter(r) && !prevLetter {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

// Report is a point-in-time injury status for a player. Player and team
// ids are nullable because name-only sources do not always resolve.
type Report struct {
	ID             string
	PlayerID       *string
	TeamID         *string
	ReportedAt     time.Time
	InjuryType     *string
	BodyArea       *string
	Diagnosis      *string
	Status         Status
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
	SourceURL      *string
}

func (r Report) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("injury report id is required")
	}
	if r.ReportedAt.IsZero() {
		return fmt.Errorf("injury report time is required")
	}
	if _, ok := validStatuses[r.Status]; !ok {
		return fmt.Errorf("invalid injury status: %s", r.Status)
	}
	if r.EffectiveFrom != nil && r.EffectiveUntil != nil && r.EffectiveUntil.Before(*r.EffectiveFrom) {
		return fmt.Errorf("injury effective range is inverted")
	}

	return nil
}
