package core

import "time"

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func strPtr(s string) *string { return &s }
