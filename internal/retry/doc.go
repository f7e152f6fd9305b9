// Package retry provides error classification and automatic retry with
// exponential backoff for database connection handling.
//
// Two classifiers live here:
//
//   - ClosedStateClassifier implements pgrenew.StateClassifier and recognizes
//     the two closed-handle conditions the renewal layer heals: a cursor that
//     was closed underneath an in-flight call, and a connection that was.
//     Everything else is reported as open and surfaces to the caller verbatim.
//
//   - TransientClassifier implements pgrenew.ErrorClassifier and recognizes
//     temporary dial failures (connection refused, DNS hiccups, resource
//     exhaustion). It drives the Executor used while a renewal reconstructs
//     a connection.
//
// # Backoff
//
// ExponentialBackoff implements pgrenew.BackoffStrategy with configurable
// initial delay, delay cap and jitter.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
