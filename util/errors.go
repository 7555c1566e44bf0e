// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"time"

	errs "github.com/pkg/errors"
)

// stackTracer represents the stack trace functionality for an error from
// pkg/errors.
type stackTracer interface {
	StackTrace() errs.StackTrace
}

// StackTrace returns the stack trace for a pkg/errors error. The returned bool
// indicates whether the provided error is a pkg/errors error. Stack traces are
// not available for stdlib errors.
func StackTrace(err error) (string, bool) {
	e, ok := errs.Cause(err).(stackTracer)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%+v\n", e.StackTrace()), true
}

// ServerErrorCode returns a code that is handed to the client when an
// internal server error occurs. The same code is logged by the server so
// that the two can be correlated.
func ServerErrorCode() int64 {
	return time.Now().Unix()
}
