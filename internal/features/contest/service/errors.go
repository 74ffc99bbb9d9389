package service

import (
	"errors"

	"contest-tool-backend/internal/features/contest/repository"
)

var (
	ErrContestNotFound     = repository.ErrContestNotFound
	ErrDeliveryLogNotFound = repository.ErrDeliveryLogNotFound
	ErrBlacklistNotFound   = repository.ErrBlacklistEntryNotFound
	ErrInsufficientCodes   = repository.ErrInsufficientCodes

	ErrFinalizeInProgress = errors.New("finalization is already in progress")
	ErrNoActiveCycle      = errors.New("contest has no active cycle")
	ErrDeliveryInProgress = errors.New("delivery is already in progress")
	ErrNoPostForFallback  = errors.New("inbox closed and winner has no post to comment")

	// Ошибки проверки входных данных
	ErrInvalidContest   = errors.New("invalid contest settings")
	ErrInvalidPromoCode = errors.New("invalid promo code")
	ErrInvalidGlobals   = errors.New("invalid project globals")
	ErrInvalidBlacklist = errors.New("invalid blacklist entry")
	ErrInvalidEntry     = errors.New("invalid entry")
)
