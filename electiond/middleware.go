// Copyright (c) 2021-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"runtime/debug"
	"time"

	v1 "github.com/tokenvote/tokenvote/electiond/api/v1"
	"github.com/tokenvote/tokenvote/util"
)

// reqBodySizeLimit is the maximum number of bytes allowed in a request body.
const reqBodySizeLimit = 5 * 1024 * 1024 // 5 MiB

// statusWriter records the status code of a response. It forwards Hijack so
// that websocket upgrades keep working behind the logging middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer is not a hijacker")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// closeBodyMiddleware closes the request body.
func closeBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		r.Body.Close()
	})
}

// maxBodySizeMiddleware applies a maximum size limit to the request body.
func maxBodySizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, reqBodySizeLimit)
		next.ServeHTTP(w, r)
	})
}

// dumpRequest returns the request trace with the RPC credentials removed.
func dumpRequest(r *http.Request) string {
	c := r.Clone(r.Context())
	if c.Header.Get("Authorization") != "" {
		c.Header.Set("Authorization", "[redacted]")
	}
	// DumpRequest replaces the body it reads, so hand it the original.
	c.Body = r.Body
	trace, err := httputil.DumpRequest(c, true)
	r.Body = c.Body
	if err != nil {
		return fmt.Sprintf("logging: DumpRequest %v", err)
	}
	return string(trace)
}

// loggingMiddleware logs every request along with its status and duration.
// Full request dumps are only produced at the trace level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("%v", newLogClosure(func() string {
			return dumpRequest(r)
		}))

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		log.Infof("%v %v %v %v %v %v", util.RemoteAddr(r), r.Method,
			r.URL, r.Proto, sw.status, time.Since(start))
	})
}

// recoverMiddleware recovers from any panics by logging the panic and
// returning a 500 response.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			errorCode := util.ServerErrorCode()
			log.Criticalf("%v %v %v %v Internal error %v: %v",
				util.RemoteAddr(r), r.Method, r.URL, r.Proto,
				errorCode, err)
			log.Criticalf("Stacktrace (THIS IS AN ACTUAL PANIC): %s",
				debug.Stack())

			util.RespondWithJSON(w, http.StatusInternalServerError,
				v1.ServerErrorReply{
					ErrorCode: errorCode,
				})
		}()

		next.ServeHTTP(w, r)
	})
}
