package main

import (
	"anscrutins/cmd/anscrutins/commands"
	"anscrutins/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
