package main

import (
	"github.com/graphknit/graphknit/cmd/graphknit/cmd"
)

func main() {
	cmd.Execute()
}
