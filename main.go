package main

import (
	"os"

	"releasegate/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
