package main

import (
	"log"

	"leadbook/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal(err)
	}
}
