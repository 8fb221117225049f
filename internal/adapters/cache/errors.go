package cache

import "errors"

// Sentinel kinds for scoreboard errors.
var (
	ErrNotFound     = errors.New("user not in scope")
	ErrInvalidLimit = errors.New("invalid limit")
)
