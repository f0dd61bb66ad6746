package douyin

import "errors"

var (
	ErrRateLimited     = errors.New("douyin: rate limited")
	ErrNotFound        = errors.New("douyin: not found")
	ErrAccountBlocked  = errors.New("douyin: account blocked")
	ErrCaptcha         = errors.New("douyin: captcha required")
	ErrSigningFailed   = errors.New("douyin: url signing failed")
	ErrBrowserNotReady = errors.New("douyin: browser not initialized")
	ErrInvalidResponse = errors.New("douyin: invalid response")
)
