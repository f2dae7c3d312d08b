package main

import "github.com/medsync-org/medsync/api"

func main() {
	api.MainLoop()
}
