package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLimit reads a ?limit= value. An absent value yields def; anything
// that is not an integer is an error. Range checks are left to the caller.
func ParseLimit(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("limit %q is not an integer", s)
	}
	return v, nil
}
