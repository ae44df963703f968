package main

import (
	"github.com/worrakit/vision_service/config"
	"github.com/worrakit/vision_service/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
