package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound      = errors.New("resource not found") // General not found
	ErrStoryNotFound = errors.New("story not found")

	// Access Errors
	ErrForbidden = errors.New("forbidden") // Resource belongs to another user

	// Wallet Errors
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// Generation Errors
	ErrMissingContext          = errors.New("character or scenario context is empty")
	ErrGenerationFailed        = errors.New("text generation provider failed")
	ErrMalformedResponse       = errors.New("provider response is not a valid episode JSON")
	ErrUserHasActiveGeneration = errors.New("user already has an active generation request")

	// Concurrency Errors
	ErrEpisodeConflict = errors.New("episode order conflict, story was modified concurrently")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
