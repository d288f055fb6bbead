// Package ingest loads target entities from JSON files into an index.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/hyperjump/ontomatch/internal/index"
	"github.com/hyperjump/ontomatch/internal/models"
)

// batchSize is the number of targets written to the gateway per call.
const batchSize = 500

// LoadTargets decodes a JSON array of target entities and validates each one.
// Rules without an id get a random one.
func LoadTargets(r io.Reader) ([]*models.TargetEntity, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var targets []*models.TargetEntity
	if err := dec.Decode(&targets); err != nil {
		return nil, fmt.Errorf("%w: decoding targets: %v", models.ErrInvalidArgument, err)
	}
	for i, t := range targets {
		if t == nil {
			return nil, fmt.Errorf("%w: target %d is null", models.ErrInvalidArgument, i)
		}
		if t.ID == "" && t.TargetType == models.TargetRule {
			t.ID = uuid.New().String()
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
	}
	return targets, nil
}

// Load reads the targets file at path and indexes it into indexID.
// Returns the number of targets indexed.
func Load(ctx context.Context, gw index.Gateway, indexID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	targets, err := LoadTargets(f)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(targets); start += batchSize {
		end := start + batchSize
		if end > len(targets) {
			end = len(targets)
		}
		if err := gw.IndexTargets(ctx, indexID, targets[start:end]); err != nil {
			return start, err
		}
	}
	return len(targets), nil
}
