package pipeline

import "fmt"

// Category labels a failure outcome. The values are stable report strings,
// not Go identifiers; downstream reporting groups by them.
type Category string

const (
	CategoryIncompleteData       Category = "Incomplete_Data"
	CategoryInvalidFormat        Category = "Invalid_Format"
	CategoryNotMostRecent        Category = "Not_Most_Recent"
	CategoryRawFiles             Category = "Raw_Files"
	CategoryPreGoLive            Category = "Pre_Go_Live"
	CategoryPreExisting          Category = "Pre_Existing"
	CategoryValidationFailed     Category = "Validation_Failed"
	CategoryAlternativeAvailable Category = "Alternative_Available"
	CategoryGeneralError         Category = "General_Error"
	CategoryCaseClosed           Category = "Case_Closed"
	CategoryTest                 Category = "Test"
	CategoryDuplicate            Category = "Duplicate"
)

func (c Category) String() string { return string(c) }

// TestDetection describes why an archive was classified as a test recording.
type TestDetection struct {
	Reason  string
	Keyword string
}

// Failure describes a stage failure with its report category.
type Failure struct {
	Category Category
	Message  string
}

type resultKind int

const (
	kindSuccess resultKind = iota
	kindTest
	kindFailure
)

// Result is the tagged outcome every pipeline stage returns: exactly one of
// a successful payload, a test-recording detection, or a categorized
// failure holds at a time.
type Result[T any] struct {
	kind    resultKind
	value   T
	test    TestDetection
	failure Failure
}

// Success wraps a successful stage payload.
func Success[T any](value T) Result[T] {
	return Result[T]{kind: kindSuccess, value: value}
}

// TestDetected marks the item as a test recording.
func TestDetected[T any](reason, keyword string) Result[T] {
	return Result[T]{kind: kindTest, test: TestDetection{Reason: reason, Keyword: keyword}}
}

// Fail builds a failure outcome with a report category.
func Fail[T any](category Category, format string, args ...any) Result[T] {
	return Result[T]{kind: kindFailure, failure: Failure{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}}
}

func (r Result[T]) IsSuccess() bool { return r.kind == kindSuccess }

func (r Result[T]) IsTest() bool { return r.kind == kindTest }

func (r Result[T]) IsFailure() bool { return r.kind == kindFailure }

// Value returns the successful payload. Only meaningful when IsSuccess.
func (r Result[T]) Value() T { return r.value }

// Test returns the test detection. Only meaningful when IsTest.
func (r Result[T]) Test() TestDetection { return r.test }

// Failure returns the failure detail. Only meaningful when IsFailure.
func (r Result[T]) Failure() Failure { return r.failure }
