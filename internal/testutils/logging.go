// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package testutils

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
)

// NewRelativeTimeLogger returns a logfmt logger that stamps entries
// with the time since its creation, which reads better in test output
// than absolute timestamps. Pass nil to log to stderr.
func NewRelativeTimeLogger(w io.Writer) log.Logger {
	if w == nil {
		w = os.Stderr
	}

	var rtl relTimeLogger
	rtl.start = time.Now()

	mainLog := log.NewLogfmtLogger(w)
	return log.With(mainLog, "t", log.Valuer(rtl.diffTime))
}

type relTimeLogger struct {
	sync.Mutex

	start time.Time
}

func (rtl *relTimeLogger) diffTime() interface{} {
	rtl.Lock()
	defer rtl.Unlock()
	return time.Since(rtl.start)
}
