package handlers

import "strconv"

// string -> int 변환, 실패 시 기본값
func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
