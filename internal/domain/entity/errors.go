package entity

import "errors"

var (
	// User errors
	ErrInvalidUserID = errors.New("invalid user id")

	// History errors
	ErrInvalidHistoryType = errors.New("invalid history type")
)
