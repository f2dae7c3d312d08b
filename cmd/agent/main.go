package main

import "github.com/medsync-org/medsync/cmd/agent/command"

func main() {
	command.Execute()
}
