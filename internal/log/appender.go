package log

import "io"

// sinks writes every log line to each output in turn. A failing output does
// not stop the others; the first error is reported.
type sinks []io.Writer

func (s sinks) Write(p []byte) (int, error) {
	var first error
	for _, w := range s {
		if _, err := w.Write(p); err != nil && first == nil {
			first = err
		}
	}
	return len(p), first
}
