package main

import (
	"os"

	"github.com/objectmesh/go-objectmesh/cmd/node"
)

func main() {
	if err := node.GetCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
