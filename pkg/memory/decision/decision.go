// Package decision asks a generator what long-term memory to write after a
// turn and what to look up before one, and parses its free-text answer.
package decision

import (
	"strings"

	"github.com/papercomputeco/parley/pkg/memory"
)

// Decision maps a role to a fact to store or a query to run. A nil Decision
// means the engine checked and found nothing; it is never an empty map.
type Decision map[memory.Role]string

// Get returns the value for role.
func (d Decision) Get(role memory.Role) (string, bool) {
	v, ok := d[role]
	return v, ok
}

// DefaultIgnoreValues are placeholder answers that mean "nothing" even
// though they are non-empty.
func DefaultIgnoreValues() []string {
	return []string{"none", "n/a", "null", "nothing"}
}

// Parse extracts a Decision from raw generator output. Only lines that start
// with "user:" or "assistant:" (any case) count; the value is everything after
// the first colon, trimmed. Blank values are dropped and a later line for the
// same role replaces an earlier one.
func Parse(raw string) Decision {
	return ParseFiltered(raw, nil)
}

// ParseFiltered is Parse that also drops values matching one of ignore,
// compared case-insensitively with a trailing period removed.
func ParseFiltered(raw string, ignore []string) Decision {
	var d Decision
	for _, line := range strings.Split(raw, "\n") {
		role, value, ok := parseLine(line)
		if !ok || ignored(value, ignore) {
			continue
		}
		if d == nil {
			d = make(Decision, 2)
		}
		d[role] = value
	}
	return d
}

func parseLine(line string) (memory.Role, string, bool) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}

	var role memory.Role
	switch strings.ToLower(key) {
	case string(memory.RoleUser):
		role = memory.RoleUser
	case string(memory.RoleAssistant):
		role = memory.RoleAssistant
	default:
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}
	return role, value, true
}

func ignored(value string, ignore []string) bool {
	v := strings.TrimSuffix(strings.ToLower(value), ".")
	v = strings.TrimSpace(v)
	for _, i := range ignore {
		if v == strings.ToLower(strings.TrimSpace(i)) {
			return true
		}
	}
	return false
}
