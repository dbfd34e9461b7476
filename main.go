package main

import (
	"log"

	"wwcp/internal/config"
	"wwcp/server"
)

func main() {

	conf, err := config.GetConfig()
	if err != nil {
		log.Println("configuration load failed", err)
		return
	}

	system, err := server.NewSystem(conf)
	if err != nil {
		log.Println("system initialization failed", err)
		return
	}
	system.Start()

}
