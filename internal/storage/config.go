package storage

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// StorageConfig holds the storage-related configuration.
type StorageConfig struct {
	Type      string
	Path      string
	RedisAddr string
	RedisPass string
	RedisDB   int
}

// LoadStorageConfig loads storage configuration from environment
// variables. BoltDB is the default backend.
func LoadStorageConfig() (*StorageConfig, error) {
	storeType := os.Getenv("STORAGE_TYPE")
	if storeType == "" {
		storeType = "bolt"
		logrus.Infof("STORAGE_TYPE not set. Defaulting to %s.", storeType)
	}

	config := &StorageConfig{
		Type: storeType,
	}

	switch storeType {
	case "bolt":
		config.Path = os.Getenv("STORAGE_PATH")
		if config.Path == "" {
			config.Path = "sevlook.db"
			logrus.Infof("STORAGE_PATH not set. Defaulting to %s.", config.Path)
		}
	case "redis":
		config.RedisAddr = os.Getenv("REDIS_ADDR")
		if config.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
		config.RedisPass = os.Getenv("REDIS_PASSWORD")
		dbStr := os.Getenv("REDIS_DB")
		if dbStr == "" {
			config.RedisDB = 0
		} else {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_DB value: %v", err)
			}
			config.RedisDB = db
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_TYPE: %s", storeType)
	}

	return config, nil
}
