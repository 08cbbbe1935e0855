package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// lineReader delivers input lines without blocking on ctx cancellation.
type lineReader struct {
	lines <-chan string
}

func newLineReader(r io.Reader) *lineReader {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return &lineReader{lines: ch}
}

// next prints prompt and waits for a line. It returns false on EOF or when
// ctx is done.
func (lr *lineReader) next(ctx context.Context, prompt string) (string, bool) {
	fmt.Print(prompt)
	select {
	case <-ctx.Done():
		fmt.Println()
		return "", false
	case line, ok := <-lr.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	}
}
