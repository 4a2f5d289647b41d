package main

import (
	"os"

	"querylog/internal/ctl"
)

func main() {
	os.Exit(ctl.Main())
}
