/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/platform"
	"github.com/spaghettifunk/anima/testbed"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaultPath := os.Getenv("ANIMA_CONFIG")
	if defaultPath == "" {
		defaultPath = core.DefaultConfigPath
	}
	configPath := flag.String("config", defaultPath, "path to the TOML configuration file")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogError("loading configuration: %s", err)
		return 1
	}
	appConfig, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		core.LogError("loading configuration: %s", err)
		return 1
	}
	core.SetLogLevel(appConfig.LogLevel)

	if cfg.Window.ForceX11 {
		platform.ForceX11()
	}

	tb := testbed.NewTestGame(appConfig)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogError(err.Error())
		return 1
	}
	if err := e.Initialize(); err != nil {
		core.LogError("initializing the engine: %s", err)
		return 1
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		sig, ok := <-sigCh
		if !ok {
			return
		}
		core.LogInfo("received %s", sig)
		e.Shutdown()
	}()

	// run engine
	if err := e.Run(); err != nil {
		core.LogError("engine stopped: %s", err)
		return 1
	}
	return 0
}
