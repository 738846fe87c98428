package utils

import "strconv"

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// ParseID parses a positive numeric route parameter.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
