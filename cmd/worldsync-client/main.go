package main

import "github.com/xiaonanln/worldsync/components/client"

func main() {
	client.Start()
}
