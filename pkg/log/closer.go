package log

import (
	"errors"
	"io"
	"sync"
)

// closer Setup이 연 파일들을 닫습니다. hook을 먼저 닫아 닫힌 파일에 쓰지 않게 합니다.
type closer struct {
	hook  *hook
	files []io.Closer

	once sync.Once
	err  error
}

func (c *closer) Close() error {
	c.once.Do(func() {
		if c.hook != nil {
			_ = c.hook.Close()
		}
		var errs []error
		for _, f := range c.files {
			if f != nil {
				errs = append(errs, f.Close())
			}
		}
		c.err = errors.Join(errs...)
	})
	return c.err
}
