// Package storage writes the audit report to its destination: a local
// file, stdout ("-"), or an S3 object ("s3://bucket/key").
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// BlobStore persists one blob under key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Scheme is the kind of destination a Location names.
type Scheme string

const (
	SchemeFile   Scheme = "file"
	SchemeStdout Scheme = "stdout"
	SchemeS3     Scheme = "s3"
)

// Location is a parsed output destination. For SchemeFile, Root is the
// directory; for SchemeS3, Root is the bucket.
type Location struct {
	Scheme Scheme
	Root   string
	Key    string
	// URI is the location as the user wrote it, for messages.
	URI string
}

// ParseLocation validates uri without touching the filesystem or network.
func ParseLocation(uri string) (Location, error) {
	switch {
	case uri == "-":
		return Location{Scheme: SchemeStdout, URI: "stdout"}, nil

	case strings.HasPrefix(uri, "s3://"):
		bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
		if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, fmt.Errorf("invalid S3 destination %q: want s3://bucket/key", uri)
		}
		return Location{Scheme: SchemeS3, Root: bucket, Key: key, URI: uri}, nil

	case strings.TrimSpace(uri) == "":
		return Location{}, errors.New("empty output destination")
	}

	dir, file := filepath.Split(uri)
	if file == "" {
		return Location{}, fmt.Errorf("invalid output path %q: names a directory", uri)
	}
	if dir == "" {
		dir = "."
	}
	return Location{Scheme: SchemeFile, Root: dir, Key: file, URI: uri}, nil
}

// Open returns a Destination backed by the store for l. cfg is only used
// for SchemeS3 and stdout only for SchemeStdout.
func (l Location) Open(cfg aws.Config, stdout io.Writer) Destination {
	var store BlobStore
	switch l.Scheme {
	case SchemeStdout:
		store = &WriterStore{W: stdout}
	case SchemeS3:
		store = NewS3Store(cfg, l.Root)
	default:
		store = NewLocalStore(l.Root)
	}
	return Destination{Store: store, Key: l.Key, URI: l.URI}
}

// Destination is an opened output location.
type Destination struct {
	Store BlobStore
	Key   string
	URI   string
}

// Write stores data at the destination.
func (d Destination) Write(ctx context.Context, data []byte) error {
	if err := d.Store.Put(ctx, d.Key, data); err != nil {
		return fmt.Errorf("write report to %s: %w", d.URI, err)
	}
	return nil
}

// WriterStore writes every blob to W, ignoring the key.
type WriterStore struct {
	W io.Writer
}

func (s *WriterStore) Put(_ context.Context, _ string, data []byte) error {
	_, err := s.W.Write(data)
	return err
}
