package main

import (
	"github.com/linkbridge/linkbridge/cmd"
	_ "github.com/linkbridge/linkbridge/cmd/cli"
	_ "github.com/linkbridge/linkbridge/cmd/server"
)

func main() {
	cmd.Execute()
}
