//go:build !(rp2040 || rp2350)

package strconvx

import "strconv"

// Atoi matches strconv.Atoi.
func Atoi(s string) (int, error) { return strconv.Atoi(s) }
