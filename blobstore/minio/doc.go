// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and also works with other S3-compatible stores
// such as Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "models",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = engine.Save(ctx, store, "keyword-spotter")
package minio
