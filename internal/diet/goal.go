package diet

import "strings"

// Goal is the user's weight-management intent.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalGain     Goal = "gain"
	GoalMaintain Goal = "maintain"
)

func ParseGoal(s string) (Goal, error) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", invalidf("unknown goal %q", s)
	}
	return g, nil
}

func (g Goal) Valid() bool {
	switch g {
	case GoalLose, GoalGain, GoalMaintain:
		return true
	}
	return false
}
