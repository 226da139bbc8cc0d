// Package startup is intended as a helper package to
// run services in go routines in main
package startup

import (
	"os"

	"github.com/tablekit/restaurant-directory/environment"
	"github.com/tablekit/restaurant-directory/logger"
	"github.com/tablekit/restaurant-directory/tracing"
)

type Logger = logger.Logger

type Runner func(Logger) error

// Run bootstraps the logger and tracer and executes the service body. defers
// do not work in main() because of the os.Exit()
func Run(serviceName string, portName string, run Runner) {
	logger.New(environment.GetLogLevel())
	log := logger.Sugar.WithServiceName(serviceName)

	exitCode := func() int {
		var exitCode int
		var err error

		if portName != "" {
			closer := tracing.NewTracer(serviceName, portName)
			if closer != nil {
				defer closer.Close()
			}
		}
		err = run(log)
		if err != nil {
			log.Infof("Error at startup: %v", err)
			exitCode = 1
		}
		return exitCode
	}()

	log.Infof("Shutting down")
	logger.OnExit()

	os.Exit(exitCode)
}
