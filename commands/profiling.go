package commands

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// startProfiling starts the cpu profile and returns the function that stops it
// and writes the heap profile
func startProfiling(cpuProfPath, memProfPath string) (func(), error) {
	stopCPU := func() {}
	if cpuProfPath != "" {
		fmt.Println("Profiling CPU to ", cpuProfPath)
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stopCPU = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}

	return func() {
		stopCPU()
		if memProfPath == "" {
			return
		}
		fmt.Println("Profiling Memory to ", memProfPath)
		f, err := os.Create(memProfPath)
		if err != nil {
			fmt.Println("could not create memory profile: ", err)
			return
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Println("could not write memory profile: ", err)
		}
	}, nil
}
