package httpapi

import "strconv"

// parseLimit reads a limit query parameter, returning 0 (store default)
// for anything missing or unusable.
func parseLimit(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
