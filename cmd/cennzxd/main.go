package main

import (
	"github.com/cennznet/cennzx-go/internal/cli"
)

func main() {
	cli.Execute()
}
