package config

import (
	"fmt"
	"os"
)

const (
	StoreMemory = "memory"
	StoreDynamo = "dynamo"
)

type StoreConfig struct {
	// Backend selects the job store: memory or dynamo.
	Backend string
}

func GetStoreConfig() (*StoreConfig, error) {
	backend := os.Getenv("JOB_STORE_BACKEND")
	if backend == "" {
		backend = StoreMemory
	}
	if backend != StoreMemory && backend != StoreDynamo {
		return nil, fmt.Errorf("JOB_STORE_BACKEND must be %q or %q", StoreMemory, StoreDynamo)
	}
	return &StoreConfig{Backend: backend}, nil
}
