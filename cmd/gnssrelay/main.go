package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/rs/zerolog"

	"kestrel.dev/gnssrelay/internal/config"
	"kestrel.dev/gnssrelay/internal/mock"
	"kestrel.dev/gnssrelay/internal/service"
	"kestrel.dev/gnssrelay/internal/web/status"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "sets log level to debug")
	sinkPath := flag.String("sink", "positions.jsonl", "file the injection sink appends positions to")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	logger := log.DefaultLogger
	logger.Level = log.ParseLevel(level)
	zlevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	zlogger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zlevel)

	svc, err := service.New(cfg, mock.NewFileSink(*sinkPath), logger, zlogger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.StatusAddr != "" {
		sts := status.NewStatusServer(svc, &status.StatusConfig{ListenAddr: cfg.StatusAddr}, zlogger)
		go sts.Run()
		defer sts.Close()
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	svc.Shutdown()
}
