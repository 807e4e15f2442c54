// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

type multiCloser struct {
	cs []io.Closer
	l  sync.Mutex
}

func (mc *multiCloser) addCloser(c io.Closer) {
	mc.l.Lock()
	defer mc.l.Unlock()

	mc.cs = append(mc.cs, c)
}

func (mc *multiCloser) Close() error {
	mc.l.Lock()
	defer mc.l.Unlock()

	var err error
	for _, c := range mc.cs {
		if cerr := c.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}
	return err
}
