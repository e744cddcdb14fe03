package main

import (
	"context"
	"fmt"

	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/pkg/worker"
	"github.com/tunaoezer/Intercom/registry"
)

// echoJob is the unit of work submitted to the demo worker pool by the
// fire-and-forget /demo/log handler below.
type echoJob struct {
	text string
}

// processEchoJob is the worker.Pool processor for echoJob. It has nothing
// more interesting to do than this demo calls for; a real service would
// replace it with whatever asynchronous work the published event triggers.
func processEchoJob(_ context.Context, job echoJob) error {
	_ = job.text
	return nil
}

// registerDemoService mounts a small built-in service at /demo so a freshly
// started peer has something to call and subscribe to immediately: an
// "/echo" method returning its arguments unchanged, and a "/log"
// publish-only endpoint that hands each published value off to pool.
func registerDemoService(services *registry.ServiceRegistry, pool *worker.Pool[echoJob]) error {
	svc, err := services.AddService("demo", "/demo")
	if err != nil {
		return err
	}

	echo := directory.NewMethodHandler("echo", func(_ *directory.Request, args []interface{}) ([]interface{}, error) {
		return args, nil
	})
	if err := svc.AddHandler("/echo", directory.RequestCall, echo); err != nil {
		return err
	}

	log := directory.NewMethodHandler("log", func(_ *directory.Request, args []interface{}) ([]interface{}, error) {
		for _, arg := range args {
			if err := pool.Submit(echoJob{text: fmt.Sprint(arg)}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return svc.AddHandler("/log", directory.RequestPublish, log)
}
