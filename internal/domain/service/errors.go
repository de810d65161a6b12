package service

import "errors"

var (
	ErrSwitchNotFound = errors.New("switch not found")
	ErrEntryNotFound  = errors.New("config entry not found")
	ErrEntryLoaded    = errors.New("config entry already loaded")
	ErrInvalidEntry   = errors.New("invalid config entry")
)
