/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spaghettifunk/glitch/engine"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the application config")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		core.LogFatal(err.Error())
	}

	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// the loop owns the graphics context, ask it to stop and shut down here
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}

// loadConfig reads the config file on desktop. The browser has no file
// system, it runs with the defaults and the embedded shaders.
func loadConfig(path string) (*engine.ApplicationConfig, error) {
	if runtime.GOOS == "js" {
		config := engine.DefaultApplicationConfig()
		config.AssetsDir = ""
		return config, nil
	}
	return engine.LoadApplicationConfig(path)
}
