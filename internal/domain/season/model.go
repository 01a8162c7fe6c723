package season

import (
	"errors"
	"fmt"
)

var ErrDuplicate = errors.New("season already exists")

type Type string

const (
	TypeRegular  Type = "Regular Season"
	TypePlayoffs Type = "Playoffs"
)

// Season is one competitive year span. YearEnd is always derived from
// YearStart and is never settable independently.
type Season struct {
	ID        string
	YearStart int
	YearEnd   int
	Type      Type
}

// New builds a season with the derived end year.
func New(id string, yearStart int, seasonType Type) Season {
	return Season{
		ID:        id,
		YearStart: yearStart,
		YearEnd:   yearStart + 1,
		Type:      seasonType,
	}
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if s.YearStart < 1946 {
		return fmt.Errorf("season year start %d is before the league existed", s.YearStart)
	}
	if s.YearEnd != s.YearStart+1 {
		return fmt.Errorf("season year end must be year start + 1")
	}
	switch s.Type {
	case TypeRegular, TypePlayoffs:
	default:
		return fmt.Errorf("invalid season type: %s", s.Type)
	}

	return nil
}

// Label renders the conventional cross-year form, e.g. "2023-24".
func (s Season) Label() string {
	return fmt.Sprintf("%d-%02d", s.YearStart, s.YearEnd%100)
}
