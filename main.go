package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/jjenkins/motreport/cmd"
)

func main() {
	cmd.Execute()
}
