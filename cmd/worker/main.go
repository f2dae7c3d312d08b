package main

import "github.com/medsync-org/medsync/cmd/worker/command"

func main() {
	command.Execute()
}
