package generics

import "strconv"

// StringToInt parses s, returning 0 when it is not a valid integer.
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
