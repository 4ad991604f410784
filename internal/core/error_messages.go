// Package core implements the market-share pipeline.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Report Structure Errors (GRID001-GRID099)
//
//	GRID001 - Empty report: The sheet or its package header row is empty
//	          Action: Check that the right sheet was selected
//	          Patterns: "empty sheet", "package row is empty"
//
//	GRID002 - No region column: No PROVINSI header was found
//	          Action: Check the producer, package and brand header rows
//	          Patterns: "region column not found"
//
//	GRID003 - Bad layout: The configured header rows are unusable
//	          Action: Fix the LAYOUT_* settings
//	          Patterns: "invalid header layout"
//
// # Share Errors (SHR001-SHR099)
//
//	SHR001 - Indeterminate share: A region had zero total for a period
//	         Action: Review the listed regions; their shares are left blank
//	         Patterns: "indeterminate share"
//
// # Period Errors (PER001-PER099)
//
//	PER001 - Invalid period: Year or month out of range
//	         Action: Use a year from 2000 to 2100 and a month from 1 to 12
//	         Patterns: "invalid period"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing column: A required column is missing from the table
//	         Action: Check the database workbook headers
//	         Patterns: "missing required column"
//
//	VAL002 - Invalid number: A year or total could not be read
//	         Action: Check the reported row and column
//	         Patterns: "invalid number"
//
//	VAL003 - Invalid month: A month name or index could not be read
//	         Action: Use month numbers 1-12 or Indonesian month names
//	         Patterns: "invalid month"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Remove unused sheets or split the workbook
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported file: Only .xlsx and .csv files are accepted
//	          Action: Save the file as .xlsx
//	          Patterns: "unsupported file type"
//
//	FILE003 - Unreadable workbook: The workbook or sheet could not be read
//	          Action: Check the sheet name and that the file opens in Excel
//	          Patterns: "sheet not found", "unreadable workbook"
//
//	FILE004 - No file: A required file was not provided
//	          Action: Upload the current report, database and mapping files
//	          Patterns: "no file provided"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run cancelled: The run was cancelled
//	         Action: Start the run again
//	         Patterns: "context canceled"
//
//	RUN002 - System busy: Too many runs in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent runs"
//
//	RUN003 - Run timeout: The run took too long
//	         Action: Try again; reduce the database size if it persists
//	         Patterns: "context deadline exceeded"
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to the history store
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: The history store connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Store not configured: No history store is configured
//	        Action: Set STORE_DRIVER and STORE_URL or upload a database workbook
//	        Patterns: "store not configured", "unknown store driver"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgEmptyReport = UserMessage{
		Message: "The report sheet or its package header row is empty",
		Action:  "Check that the right sheet was selected",
		Code:    "GRID001",
	}
	msgUnreadable = UserMessage{
		Message: "The workbook or sheet could not be read",
		Action:  "Check the sheet name and that the file opens in Excel",
		Code:    "FILE003",
	}
	msgNoStore = UserMessage{
		Message: "No history store is configured",
		Action:  "Set STORE_DRIVER and STORE_URL or upload a database workbook",
		Code:    "DB003",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Report Structure (GRID001-GRID003)
	// =========================================================================
	{pattern: "empty sheet", msg: msgEmptyReport},
	{pattern: "package row is empty", msg: msgEmptyReport},
	{
		pattern: "region column not found",
		msg: UserMessage{
			Message: "No region (PROVINSI) column was found in the report",
			Action:  "Check the producer, package and brand header rows",
			Code:    "GRID002",
		},
	},
	{
		pattern: "invalid header layout",
		msg: UserMessage{
			Message: "The configured header rows are unusable",
			Action:  "Fix the LAYOUT_* settings",
			Code:    "GRID003",
		},
	},

	// =========================================================================
	// Shares and Periods (SHR001, PER001)
	// =========================================================================
	{
		pattern: "indeterminate share",
		msg: UserMessage{
			Message: "Some regions had a zero total for a period",
			Action:  "Review the listed regions; their shares are left blank",
			Code:    "SHR001",
		},
	},
	{
		pattern: "invalid period",
		msg: UserMessage{
			Message: "Year or month is out of range",
			Action:  "Use a year from 2000 to 2100 and a month from 1 to 12",
			Code:    "PER001",
		},
	},

	// =========================================================================
	// Validation (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing from the table",
			Action:  "Check the database workbook headers",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "A year or total could not be read",
			Action:  "Check the reported row and column",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid month",
		msg: UserMessage{
			Message: "A month name or index could not be read",
			Action:  "Use month numbers 1-12 or Indonesian month names",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Files (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Remove unused sheets or split the workbook",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only .xlsx and .csv files are accepted",
			Action:  "Save the file as .xlsx",
			Code:    "FILE002",
		},
	},
	{pattern: "sheet not found", msg: msgUnreadable},
	{pattern: "unreadable workbook", msg: msgUnreadable},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A required file was not provided",
			Action:  "Upload the current report, database and mapping files",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Runs (RUN001-RUN003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Start the run again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "System is busy processing other runs",
			Action:  "Please wait a moment and try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run took too long",
			Action:  "Try again; reduce the database size if it persists",
			Code:    "RUN003",
		},
	},

	// =========================================================================
	// History Store (DB001-DB003)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the history store",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The history store connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{pattern: "store not configured", msg: msgNoStore},
	{pattern: "unknown store driver", msg: msgNoStore},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
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
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
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
