// Package retry re-runs provider calls that fail transiently.
//
// [Do] retries an operation with exponential backoff until it succeeds, the
// attempt budget is spent, the context ends, or the error is classified as
// permanent, either by wrapping it with [Fatal] or through the predicate
// passed with [OnlyIf]. It is used to absorb EC2 request throttling.
package retry
