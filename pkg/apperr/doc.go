// Package apperr defines the error taxonomy returned by BoardGuru services and
// rendered by the HTTP API.
//
// Every error that reaches a client is an *Error carrying a stable Code, a
// Category, an HTTP status and an optional Field and Suggestion. Errors from
// lower layers (stores, drivers, network) are classified with From:
//
//	if err := svc.Create(ctx, in); err != nil {
//	    apperr.Write(w, r, err)
//	    return
//	}
//
// Transient failures (database timeouts, network errors) are Recoverable and
// can be retried with Retry.
package apperr
