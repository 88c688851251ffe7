// Command tilestream runs data-copy programs on a simulated tile-based
// accelerator and generates its local memory map.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	code := 0
	if err := rootCmd.Execute(); err != nil {
		code = 1
	}

	atexit.Exit(code)
}
