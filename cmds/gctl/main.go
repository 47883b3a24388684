package main

import (
	"fmt"
	"os"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/logging/logrusl"
	"github.com/mandelsoft/logging/logrusr"

	"github.com/mandelsoft/graphstore/cmds/gctl/app"
)

func init() {
	logcfg := logrusl.Human(true)
	logging.DefaultContext().SetBaseLogger(logrusr.New(logcfg.NewLogrus()))
}

func main() {
	cmd := app.New()
	cmd.SetArgs(os.Args[1:])
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}
