package team

import (
	"errors"
	"fmt"
)

var ErrDuplicateName = errors.New("team name already exists")

// Team is a canonical franchise identity, unique by name.
type Team struct {
	ID           string
	Name         string
	City         *string
	Abbreviation *string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
