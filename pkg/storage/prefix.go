package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnreadableEnvironment is matched by errors returned for prefixes whose
// metadata store cannot be opened
var ErrUnreadableEnvironment = errors.New("unreadable environment")

// PrefixError reports a prefix whose metadata store cannot be read
type PrefixError struct {
	Prefix string
	Err    error
}

// Error implements the error interface
func (e *PrefixError) Error() string {
	return fmt.Sprintf("unreadable environment %s: %v", e.Prefix, e.Err)
}

// Unwrap returns the wrapped error
func (e *PrefixError) Unwrap() error {
	return e.Err
}

// Is makes every PrefixError match ErrUnreadableEnvironment
func (e *PrefixError) Is(target error) bool {
	return target == ErrUnreadableEnvironment
}

// Options controls how a prefix is read
type Options struct {
	// PipInterop merges packages installed by pip into the records
	PipInterop bool
}

// PrefixData implements the Store interface over a prefix's conda-meta directory
type PrefixData struct {
	prefix string
	opts   Options
}

// Open opens the metadata store of the prefix read-only
func Open(prefix string, opts Options) (*PrefixData, error) {
	meta := filepath.Join(prefix, "conda-meta")
	info, err := os.Stat(meta)
	if err != nil {
		return nil, &PrefixError{Prefix: prefix, Err: err}
	}
	if !info.IsDir() {
		return nil, &PrefixError{Prefix: prefix, Err: fmt.Errorf("%s is not a directory", meta)}
	}

	return &PrefixData{prefix: prefix, opts: opts}, nil
}

// NewOpener returns an Opener that opens prefixes with opts
func NewOpener(opts Options) Opener {
	return func(prefix string) (Store, error) {
		return Open(prefix, opts)
	}
}

// Prefix returns the environment path
func (p *PrefixData) Prefix() string {
	return p.prefix
}

// Records lists the installed package records. Files that fail to decode are
// skipped; only an unreadable conda-meta directory is an error.
func (p *PrefixData) Records(ctx context.Context) ([]*Record, error) {
	meta := filepath.Join(p.prefix, "conda-meta")
	entries, err := os.ReadDir(meta)
	if err != nil {
		return nil, &PrefixError{Prefix: p.prefix, Err: err}
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(meta, entry.Name())
		rec, err := readRecord(path)
		if err != nil {
			logrus.WithField("path", path).Warnf("Skipping package record: %v", err)
			continue
		}
		records = append(records, rec)
	}

	if p.opts.PipInterop {
		pip, err := pipRecords(ctx, p.prefix, records)
		if err != nil {
			return nil, err
		}
		records = append(records, pip...)
	}

	logrus.WithFields(logrus.Fields{"prefix": p.prefix, "count": len(records)}).Debug("Read package records")
	return records, nil
}

func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("record has no name")
	}

	return &rec, nil
}
