// Package natsort provides natural-order string sorting, so "shot2" sorts
// before "shot10". Used wherever input files are matched by sort order.
package natsort

import "sort"

// Less reports whether a sorts before b in natural order: runs of digits
// compare numerically, everything else byte-wise.
func Less(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			ai, an := chunkNumber(a, i)
			bj, bn := chunkNumber(b, j)
			if an != bn {
				return numLess(an, bn)
			}
			i, j = ai, bj
			continue
		}
		if a[i] != b[j] {
			return a[i] < b[j]
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

// Sort sorts ss in place in natural order.
func Sort(ss []string) {
	sort.Slice(ss, func(i, j int) bool {
		return Less(ss[i], ss[j])
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// chunkNumber returns the index past the digit run starting at i and the
// run itself with leading zeros stripped.
func chunkNumber(s string, i int) (int, string) {
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n := s[start:i]
	for len(n) > 1 && n[0] == '0' {
		n = n[1:]
	}
	return i, n
}

// numLess compares two digit strings numerically without parsing, so
// arbitrarily long runs are safe.
func numLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
