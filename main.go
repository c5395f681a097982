// main is the entry point for the historian CLI.
package main

import (
	"github.com/huangsam/historian/cmd"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Failed to stop profiling", err)
	}
}
