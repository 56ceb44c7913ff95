package main

import "github.com/xiaonanln/worldsync/components/server"

func main() {
	server.Start()
}
