package generation

import "errors"

// Common errors returned by generators
var (
	// ErrEmptyGeneration is returned when the model output is empty after trimming
	ErrEmptyGeneration = errors.New("generative model returned empty output")

	// ErrInvalidResponse is returned when the model response is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrQuotaExceeded is returned for quota or billing failures
	ErrQuotaExceeded = errors.New("language model quota exceeded")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyPrompt is returned when a request has no prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// IsPermanent reports whether err should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrEmptyGeneration) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrEmptyPrompt)
}
