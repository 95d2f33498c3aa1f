// Package errors provides application error types for PrintForge.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types
//   - Error type checking helpers
//   - HTTP status code mapping
//
// # Error Types
//
//   - NotFound: Resource does not exist (404)
//   - Validation: Invalid input data (422)
//   - InvalidTransition: Disallowed status change (422)
//   - Unauthorized: Authentication required (401)
//   - Forbidden: Insufficient permissions (403)
//   - Conflict: Uniqueness or state conflict (409)
//   - Internal: Unexpected server error (500)
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.NotFound("spool")
//	return apperrors.InvalidTransition("print job", "completed", "printing")
//
// Check error types:
//
//	if apperrors.IsNotFound(err) {
//	    // Handle not found
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("operation failed: %w", apperrors.NotFound("printer"))
package errors
