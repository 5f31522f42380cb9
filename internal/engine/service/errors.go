package service

import "errors"

var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeNotActive = errors.New("challenge is not active")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotOpen       = errors.New("order is not open")
	ErrInvalidOrderType   = errors.New("order type must be buy or sell")
	ErrUserNotFound       = errors.New("user not found")
)
