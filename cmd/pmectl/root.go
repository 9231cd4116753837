package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pme"
	"github.com/hupe1980/pme/blobstore"
	"github.com/hupe1980/pme/blobstore/minio"
	"github.com/hupe1980/pme/blobstore/s3"
	"github.com/hupe1980/pme/pack"
)

type globalFlags struct {
	store       string
	logLevel    string
	compression string
	memoryLimit int64
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "pmectl",
		Short: "Manage pattern matching models",
		Long: `pmectl creates, trains and queries pattern matching models.

Models live in a blob store selected with --store:
  ./model                     local directory
  file:///var/lib/pme/model   local directory
  s3://bucket/prefix          Amazon S3 (default AWS credential chain)
  minio://host:9000/bucket    MinIO (MINIO_ACCESS_KEY, MINIO_SECRET_KEY)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.store, "store", "./model", "model blob store location")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.compression, "compression", "lz4", "pack compression for saves (none, lz4, zstd, snappy)")
	root.PersistentFlags().Int64Var(&g.memoryLimit, "memory-limit", 0, "engine memory limit in bytes, 0 for unlimited")

	root.AddCommand(
		newValidateCmd(),
		newInitCmd(g),
		newInspectCmd(g),
		newPruneCmd(g),
		newLearnCmd(g),
		newClassifyCmd(g),
	)
	return root
}

// engineOptions builds the engine options shared by every command.
func (g *globalFlags) engineOptions() ([]pme.Option, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	var c pack.Compression
	if err := c.UnmarshalText([]byte(g.compression)); err != nil {
		return nil, fmt.Errorf("invalid --compression: %w", err)
	}
	return []pme.Option{
		pme.WithLogLevel(level),
		pme.WithPackCompression(c),
		pme.WithMemoryLimit(g.memoryLimit),
	}, nil
}

// openStore resolves a --store location.
func openStore(ctx context.Context, location string) (blobstore.BlobStore, error) {
	if !strings.Contains(location, "://") {
		return blobstore.NewLocalStore(location), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid --store: %w", err)
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid --store %q: missing bucket", location)
		}
		var opts []s3.Option
		if prefix != "" {
			opts = append(opts, s3.WithPrefix(prefix))
		}
		return s3.New(ctx, u.Host, opts...)
	case "minio":
		bucket, rest, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("invalid --store %q: want minio://host/bucket[/prefix]", location)
		}
		return minio.New(minio.Config{
			Endpoint:  u.Host,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    bucket,
			Prefix:    rest,
			Secure:    u.Query().Get("secure") == "true",
			Region:    u.Query().Get("region"),
		})
	default:
		return nil, fmt.Errorf("invalid --store %q: unsupported scheme %q", location, u.Scheme)
	}
}

// parseVector parses comma-separated byte values such as "1,2,255".
func parseVector(s string) ([]byte, error) {
	fields := strings.Split(s, ",")
	v := make([]byte, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q: %w", f, err)
		}
		v = append(v, byte(n))
	}
	return v, nil
}
