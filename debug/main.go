package main

import (
	"github.com/emrgen/studydoc/cmd"
)

func main() {
	cmd.Execute()
}
