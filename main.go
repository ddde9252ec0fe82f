package main

import (
	"github.com/yijiasang/glamap/startup"
	"github.com/yijiasang/glamap/startup/config"
)

func main() {
	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
