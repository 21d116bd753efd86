//go:build !statsview

package statsview

import (
	"fmt"
	"io"
)

func Launch(output io.Writer) {
	fmt.Fprintln(output, "stats server not available in this build")
}

func Available() bool {
	return false
}
