// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package diagnostics adds profiling and tracing support to command line
// tools.
package diagnostics

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// Flags are the command line flags controlling diagnostics.
type Flags struct {
	Port       *cli.IntFlag    // < port of the pprof server, disabled if 0
	CpuProfile *cli.StringFlag // < CPU profile output file, disabled if empty
	Trace      *cli.StringFlag // < execution trace output file, disabled if empty
}

// DefaultFlags returns the diagnostic flags shared by all tools.
func DefaultFlags() Flags {
	return Flags{
		Port: &cli.IntFlag{
			Name:  "diagnostic-port",
			Usage: "enable hosting of a realtime diagnostic server by providing a port",
		},
		CpuProfile: &cli.StringFlag{
			Name:  "cpuprofile",
			Usage: "sets the target file for storing CPU profiles to, disabled if empty",
		},
		Trace: &cli.StringFlag{
			Name:  "tracefile",
			Usage: "sets the target file for traces to, disabled if empty",
		},
	}
}

// All lists the flags for registration in an app.
func (f Flags) All() []cli.Flag {
	return []cli.Flag{f.Port, f.CpuProfile, f.Trace}
}

// Wrap extends the given action by the diagnostics requested through the
// flags. Profiles and traces are finalized when the action returns.
func (f Flags) Wrap(action cli.ActionFunc) cli.ActionFunc {
	return func(context *cli.Context) (err error) {
		startDiagnosticServer(context.Int(f.Port.Name))

		if name := strings.TrimSpace(context.String(f.CpuProfile.Name)); name != "" {
			stop, startErr := startCpuProfiler(name)
			if startErr != nil {
				return startErr
			}
			defer func() { err = errors.Join(err, stop()) }()
		}

		if name := strings.TrimSpace(context.String(f.Trace.Name)); name != "" {
			stop, startErr := startTracer(name)
			if startErr != nil {
				return startErr
			}
			defer func() { err = errors.Join(err, stop()) }()
		}

		return action(context)
	}
}

func startDiagnosticServer(port int) {
	if port <= 0 || port >= (1<<16) {
		return
	}
	addr := fmt.Sprintf("localhost:%d", port)
	log.Info("Starting diagnostic server", "url", "http://"+addr+"/debug/pprof/")
	log.Warn("Block and mutex sampling enabled for diagnostics")
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Diagnostic server stopped", "err", err)
		}
	}()
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)
}

func startCpuProfiler(filename string) (func() error, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return nil, errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	return func() error {
		pprof.StopCPUProfile()
		return f.Close()
	}, nil
}

func startTracer(filename string) (func() error, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to start trace: %w", err), f.Close())
	}
	return func() error {
		trace.Stop()
		return f.Close()
	}, nil
}
