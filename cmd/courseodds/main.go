package main

import (
	"context"
	"os"

	"courseodds/cmd/courseodds/commands"
	"courseodds/lib/osutil"
)

func main() {
	ctx, stop := osutil.SignalContext(context.Background())
	code := commands.Execute(ctx, os.Args[1:], commands.StdStreams())
	stop()
	os.Exit(code)
}
