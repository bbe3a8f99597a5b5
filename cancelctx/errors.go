package cancelctx

import "errors"

// Namespace prefixes every sentinel error this package returns, following
// ygrebnov-workers' "<namespace>: <reason>" error-string convention.
const Namespace = "cancelctx"

// ErrCancelled is the default reason reported by Err when a context was
// cancelled without an explicit reason.
var ErrCancelled = errors.New(Namespace + ": cancelled")

// ErrDeadlineExceeded is the reason WithTimeout supplies when its deadline
// fires before anything else cancels the context.
var ErrDeadlineExceeded = errors.New(Namespace + ": deadline exceeded")
