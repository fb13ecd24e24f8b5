package main

import (
	"tieba-assist/cmd/tieba-cli/commands"
	"tieba-assist/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
