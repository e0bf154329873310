package main

import "attendease/internal/app/server"

func main() {
	server.Run()
}
