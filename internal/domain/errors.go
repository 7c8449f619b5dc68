package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidBrief = errors.New("invalid brief")
)
