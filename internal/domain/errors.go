package domain

import "errors"

var (
	ErrTransientService  = errors.New("generation service unavailable")
	ErrMalformedResponse = errors.New("malformed generation response")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidProfile    = errors.New("invalid profile")
)
