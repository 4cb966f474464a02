package util

import "log"

const Debug = 0

func DPrintf(level int, format string, a ...interface{}) {
	if level <= Debug {
		log.Printf(format, a...)
	}
}

func DivRoundUp(n int, sz int) int {
	return (n + sz - 1) / sz
}

func Min(n int, m int) int {
	if n < m {
		return n
	} else {
		return m
	}
}
