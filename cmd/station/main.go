package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/robotalks/teststand/pkg/config"
	fx "github.com/robotalks/teststand/pkg/framework"
	"github.com/robotalks/teststand/pkg/metrics"
	"github.com/robotalks/teststand/pkg/station"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	runner := fx.NewRunner().HandleSignals()
	for _, name := range conf.Roles() {
		role, err := station.ParseRole(name)
		if err != nil {
			log.Fatalln(err)
		}
		m := metrics.New(prometheus.WrapRegistererWith(prometheus.Labels{"role": name}, reg))
		runner.Go(fx.NamedRun(name, station.New(role, conf, m)))
	}
	if addr := conf.Metrics.Addr; addr != "" {
		runner.Go(fx.NamedRun("metrics", fx.RunFunc(func(ctx context.Context) error {
			return metrics.Serve(ctx, addr, reg)
		})))
	}
	if err := runner.Wait(); err != nil {
		glog.Exitf("station: %v", err)
	}
}
