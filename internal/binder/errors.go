package binder

import "errors"

// Store errors. Operations wrap them with context; match with errors.Is.
var (
	ErrUnknownCard          = errors.New("card is not in the catalog")
	ErrInsufficientQuantity = errors.New("insufficient quantity owned")
	ErrSlotOutOfRange       = errors.New("slot index out of range")
	ErrNotOwned             = errors.New("card is not owned")
	ErrDeckNotFound         = errors.New("deck not found")
	ErrEmptySlot            = errors.New("slot is empty")
	ErrInvalidCover         = errors.New("cover card is not in the deck")
	ErrInvalidDeck          = errors.New("invalid deck")
	ErrInvalidCount         = errors.New("count must be at least 1")
	ErrQuantityOverflow     = errors.New("quantity would overflow")
	ErrSessionClosed        = errors.New("session is closed")
)
