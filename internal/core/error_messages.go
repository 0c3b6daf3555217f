// Package core provides the validation and cleaning pipeline for tabular data.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes that can
// be quoted to support staff.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Unknown column: The rules name a column the file does not have
//	         Patterns: "unknown columns"
//
//	CFG002 - Unknown strategy: A strategy name is not recognised
//	         Patterns: "null strategy", "impute strategy", "duplicate strategy"
//
//	CFG003 - Unknown type: A type mapping names an unsupported type
//	         Patterns: "unknown column type"
//
//	CFG004 - Unknown validator: The validator list names an unknown validator
//	         Patterns: "unknown validator"
//
//	CFG005 - Invalid rules: Any other configuration problem
//	         Patterns: "invalid configuration", "invalid rules"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV             Patterns: "parse error", "invalid csv"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//	FILE006 - No header row           Patterns: "no header"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN002 - System busy              Patterns: "too many concurrent runs"
//	RUN003 - Run not found            Patterns: "run not found"
//	RUN004 - Request cancelled        Patterns: "context canceled"
//	RUN005 - Request timeout          Patterns: "context deadline exceeded"
//
// # Rate Limit Errors (RATE001-RATE099)
//
//	RATE001 - Too many requests       Patterns: "rate limit exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB005 - Connection reset          Patterns: "connection reset"
//	DB006 - Timeout                   Patterns: "timeout"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Configuration
	{
		pattern: "unknown columns",
		msg: UserMessage{
			Message: "The rules refer to a column that is not in the file",
			Action:  "Check the type mapping and compare columns against the file header",
			Code:    "CFG001",
		},
	},
	{
		pattern: "null strategy",
		msg: UserMessage{
			Message: "Unknown null strategy",
			Action:  "Use drop or impute",
			Code:    "CFG002",
		},
	},
	{
		pattern: "impute strategy",
		msg: UserMessage{
			Message: "Unknown impute strategy",
			Action:  "Use constant, mean or mode",
			Code:    "CFG002",
		},
	},
	{
		pattern: "duplicate strategy",
		msg: UserMessage{
			Message: "Unknown duplicate strategy",
			Action:  "Use drop_all, keep_first or keep_last",
			Code:    "CFG002",
		},
	},
	{
		pattern: "unknown column type",
		msg: UserMessage{
			Message: "Unsupported column type in type mapping",
			Action:  "Use integer, float, string, boolean or datetime",
			Code:    "CFG003",
		},
	},
	{
		pattern: "unknown validator",
		msg: UserMessage{
			Message: "Unknown validator",
			Action:  "Use null, type or duplicate",
			Code:    "CFG004",
		},
	},
	{
		pattern: "invalid configuration",
		msg: UserMessage{
			Message: "The cleaning rules are invalid",
			Action:  "Review the rules and try again",
			Code:    "CFG005",
		},
	},
	{
		pattern: "invalid rules",
		msg: UserMessage{
			Message: "The cleaning rules could not be read",
			Action:  "Send the rules as a JSON object",
			Code:    "CFG005",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach a CSV file in the \"file\" form field",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no header",
		msg: UserMessage{
			Message: "The file has no usable header row",
			Action:  "Make the first line a list of column names",
			Code:    "FILE006",
		},
	},

	// Run
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "System busy",
			Action:  "Please wait a moment and try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Cleaning run not found",
			Action:  "The run may have expired. Submit the file again",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit exceeded",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Wait a minute before sending more files",
			Code:    "RATE001",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error and ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging via Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
