//go:build rp2040 || rp2350

package strconvx

import "errors"

var (
	ErrSyntax = errors.New("invalid syntax")
	ErrRange  = errors.New("value out of range")
)

const maxInt = int(^uint(0) >> 1)

// Atoi parses a base-10 integer with an optional sign.
func Atoi(s string) (int, error) {
	if s == "" {
		return 0, ErrSyntax
	}
	neg := false
	switch s[0] {
	case '+', '-':
		neg = s[0] == '-'
		s = s[1:]
		if s == "" {
			return 0, ErrSyntax
		}
	}
	var n uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, ErrSyntax
		}
		d := uint(c - '0')
		if n > (uint(maxInt)+1-d)/10 {
			return 0, ErrRange
		}
		n = n*10 + d
	}
	if neg {
		if n > uint(maxInt)+1 {
			return 0, ErrRange
		}
		return -int(n), nil
	}
	if n > uint(maxInt) {
		return 0, ErrRange
	}
	return int(n), nil
}
