package errors

import (
	"fmt"
	"time"
)

// PDFError represents a document or annotation error with the location it was found at
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	ObjectNum   int       `json:"object_num,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`

	cause error
}

// ErrorType represents different categories of errors met while reading annotations
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidHeader
	ErrorTypeCorruptedXRef
	ErrorTypeMalformedObject
	ErrorTypeMissingObject
	ErrorTypeInvalidEncoding
	ErrorTypeSecurityRestriction
	ErrorTypeMalformedPage
	ErrorTypeInvalidAnnotation
	ErrorTypeInvalidStructure
	ErrorTypeResourceNotFound
	ErrorTypeTimeout
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityFatal
)

// Error implements the error interface
func (e *PDFError) Error() string {
	location := ""
	if e.PageNumber > 0 {
		location = fmt.Sprintf(" (page %d)", e.PageNumber)
	}
	if e.Context != "" {
		return fmt.Sprintf("[%s] %s: %s%s", e.Type.String(), e.Message, e.Context, location)
	}
	return fmt.Sprintf("[%s] %s%s", e.Type.String(), e.Message, location)
}

// Unwrap returns the wrapped error, if any
func (e *PDFError) Unwrap() error {
	return e.cause
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidHeader:
		return "INVALID_HEADER"
	case ErrorTypeCorruptedXRef:
		return "CORRUPTED_XREF"
	case ErrorTypeMalformedObject:
		return "MALFORMED_OBJECT"
	case ErrorTypeMissingObject:
		return "MISSING_OBJECT"
	case ErrorTypeInvalidEncoding:
		return "INVALID_ENCODING"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeInvalidAnnotation:
		return "INVALID_ANNOTATION"
	case ErrorTypeInvalidStructure:
		return "INVALID_STRUCTURE"
	case ErrorTypeResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeInvalidHeader, ErrorTypeCorruptedXRef, ErrorTypeInvalidStructure:
		return SeverityCritical
	case ErrorTypeMalformedObject, ErrorTypeMissingObject, ErrorTypeMalformedPage:
		return SeverityError
	case ErrorTypeInvalidEncoding, ErrorTypeInvalidAnnotation:
		return SeverityWarning
	case ErrorTypeSecurityRestriction, ErrorTypeResourceNotFound:
		return SeverityWarning
	case ErrorTypeTimeout:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// IsRecoverable determines if processing can continue past an error of this type
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeInvalidHeader, ErrorTypeCorruptedXRef, ErrorTypeInvalidStructure:
		return false
	case ErrorTypeTimeout:
		return false
	case ErrorTypeMalformedObject, ErrorTypeMissingObject, ErrorTypeMalformedPage:
		return true // the offending annotation is skipped
	case ErrorTypeInvalidEncoding, ErrorTypeInvalidAnnotation:
		return true
	case ErrorTypeSecurityRestriction, ErrorTypeResourceNotFound:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	e := NewPDFError(errorType, err.Error())
	e.cause = err
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithObject adds the object number the error was found in
func (e *PDFError) WithObject(objNum int) *PDFError {
	e.ObjectNum = objNum
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error is critical or fatal
func (e *PDFError) IsCritical() bool {
	severity := e.GetSeverity()
	return severity == SeverityCritical || severity == SeverityFatal
}

// ErrorCollection gathers the anomalies of one extraction run
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
	FilePath string      `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PDFError) {
	if err == nil {
		return
	}
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// HasCriticalErrors returns true if any critical errors exist
func (ec *ErrorCollection) HasCriticalErrors() bool {
	for _, err := range ec.Errors {
		if err.IsCritical() {
			return true
		}
	}
	return false
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}

	summary := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)

	if ec.HasCriticalErrors() {
		summary += " (including critical errors)"
	}

	return summary
}
