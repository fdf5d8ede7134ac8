package selection

import (
	"fmt"
	"strings"
)

// Mode is the active editing tool. Exactly one mode is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeEditAdd
	ModeEditDelete
	ModePan
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditAdd:
		return "add"
	case ModeEditDelete:
		return "delete"
	case ModePan:
		return "pan"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names returned by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle", "":
		return ModeIdle, nil
	case "add":
		return ModeEditAdd, nil
	case "delete":
		return ModeEditDelete, nil
	case "pan":
		return ModePan, nil
	}
	return ModeIdle, fmt.Errorf("unknown editing mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
