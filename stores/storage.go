package stores

import (
	"context"
	"os"

	"artisan-canvas/core"
	"artisan-canvas/stores/aws"
	"artisan-canvas/stores/filesystem"
	"artisan-canvas/stores/memory"
	"artisan-canvas/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore builds the key-value store selected by STORAGE_TYPE. Unknown or
// empty values select the in-memory store.
func GetStore(ctx context.Context) core.KVStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.KVStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		fs, err := filesystem.NewStore(basePath)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open filesystem storage")
		}
		store = fs
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "artisan.db"
		}
		storageField["dataSourceName"] = dataSourceName
		db, err := sqlite.NewStore(dataSourceName)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open sqlite storage")
		}
		store = db
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		prefix := os.Getenv("S3_KEY_PREFIX")
		storageField["bucketName"] = bucketName
		storageField["prefix"] = prefix
		s3, err := aws.NewStore(ctx, bucketName, prefix)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to set up s3 storage")
		}
		store = s3
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
