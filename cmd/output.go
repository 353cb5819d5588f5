package cmd

import (
	"fmt"
	"io"

	"firestige.xyz/dissect/internal/core"
)

// printResult writes the summary line of one record and, unless summary is
// set, its display tree.
func printResult(w io.Writer, frame uint64, res *core.Result, err error, summary bool) error {
	if res == nil {
		_, werr := fmt.Fprintf(w, "#%d error: %v\n", frame, err)
		return werr
	}
	if _, werr := fmt.Fprintf(w, "#%d %s: %s\n", frame, res.Protocol, res.Info); werr != nil {
		return werr
	}
	if err != nil {
		if _, werr := fmt.Fprintf(w, "    error: %v\n", err); werr != nil {
			return werr
		}
	}
	if summary {
		return nil
	}
	return core.Fprint(w, res.Tree)
}
