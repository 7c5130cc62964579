package process

import "strings"

// MatchName compares executable names case-insensitively, ignoring a
// trailing ".exe".
func MatchName(name, target string) bool {
	return strings.EqualFold(trimExe(strings.TrimSpace(name)), trimExe(strings.TrimSpace(target)))
}

func trimExe(name string) string {
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		return name[:len(name)-4]
	}
	return name
}
