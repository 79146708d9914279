package main

import (
	"log"

	"callmonitor-bridge/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
