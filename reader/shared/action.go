package shared

import (
	"strings"

	"github.com/go-faster/errors"
)

// Action is the failure policy applied when a field value fails validation.
type Action int

const (
	ActionFix Action = iota
	ActionDrop
	ActionFatal
)

var actionNames = map[Action]string{
	ActionFix:   "FIX",
	ActionDrop:  "DROP",
	ActionFatal: "FATAL",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseAction accepts FIX, DROP or FATAL in any case. An empty string means FIX.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "FIX":
		return ActionFix, nil
	case "DROP":
		return ActionDrop, nil
	case "FATAL":
		return ActionFatal, nil
	}
	return 0, NewConfigError("", errors.Errorf("action must be one of: FIX, DROP, FATAL, got %q", s))
}
