// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	log "github.com/sirupsen/logrus"
)

// writeProfilesPeriodically refreshes cpu.prof and mem.prof in outdir
// every interval until stop is closed.
func writeProfilesPeriodically(outdir string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			writeMemProfile(outdir)
			writeCPUProfile(outdir, time.Second)
		}
	}
}

func writeCPUProfile(outdir string, d time.Duration) {
	tmp := filepath.Join(outdir, "cpu.prof~")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		log.Print(err)
		return
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		log.Print(err)
		return
	}
	time.Sleep(d)
	pprof.StopCPUProfile()
	if err = f.Close(); err != nil {
		log.Print(err)
		return
	}
	if err = os.Rename(tmp, filepath.Join(outdir, "cpu.prof")); err != nil {
		log.Print(err)
	}
}

func writeMemProfile(outdir string) {
	tmp := filepath.Join(outdir, "mem.prof~")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		log.Print(err)
		return
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Print(err)
		return
	}
	if err = f.Close(); err != nil {
		log.Print(err)
		return
	}
	if err = os.Rename(tmp, filepath.Join(outdir, "mem.prof")); err != nil {
		log.Print(err)
	}
}
