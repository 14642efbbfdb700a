/*
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
"License"); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
"AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/k-vswitch/switchd/config"
	"github.com/k-vswitch/switchd/connection"
	"github.com/k-vswitch/switchd/controllers/openflow"
	"github.com/k-vswitch/switchd/switches"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"k8s.io/klog"
)

func main() {
	klog.InitFlags(flag.CommandLine)

	app := cli.NewApp()
	app.Name = "switchd"
	app.Usage = "OpenFlow 1.0 and 1.3 learning switch controller"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringSliceFlag{
			Name:  "listen, l",
			Usage: "listen for switches on `ADDRESS` (tcp:host:port or unix:/path), overrides the configuration",
		},
		cli.IntFlag{
			Name:  "verbose",
			Value: -1,
			Usage: "log verbosity, overrides the configuration",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		klog.Errorf("switchd failed: %v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if listen := c.StringSlice("listen"); len(listen) > 0 {
		cfg.Listen = listen
	}
	if verbose := c.Int("verbose"); verbose >= 0 {
		cfg.Verbose = verbose
	}

	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := flag.Set("v", strconv.Itoa(cfg.Verbose)); err != nil {
		return errors.Wrap(err, "setting log verbosity")
	}

	klog.Info("starting switchd")
	cfg.Print()

	registry := switches.NewRegistry(cfg.Cache.Capacity, cfg.Cache.Timeout, nil)
	server := connection.NewServer(registry, openflow.NewController())

	for _, addr := range cfg.Listen {
		if _, err := server.Listen(addr); err != nil {
			server.Close()
			return err
		}
	}

	stopCh := make(chan struct{})
	for _, addr := range cfg.Connect.Switches {
		server.Connect(addr, cfg.Connect.Interval, stopCh)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)

	for sig := range signals {
		if sig == syscall.SIGUSR1 {
			dumpSummary(registry, server.Counters())
			continue
		}

		klog.Infof("received %s, shutting down", sig)
		break
	}

	signal.Stop(signals)
	close(stopCh)
	server.Close()
	return nil
}

func dumpSummary(registry *switches.Registry, counters *connection.Counters) {
	summaries := registry.Summary()
	klog.Infof("%d switches, %d sessions, %d bytes queued", len(summaries), counters.Sessions(), counters.Inflight())

	for _, summary := range summaries {
		klog.Info(summary)
		for _, entry := range summary.MacEntries {
			klog.Infof("  %s port %d last seen %s", entry.Addr, entry.Port, entry.LastSeen.Format("15:04:05"))
		}
	}
}
