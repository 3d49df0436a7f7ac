// Package store persists the open positions of a single bot process to a
// JSON file. The store owns both the in-memory collection and its on-disk
// mirror; no other component mutates either directly.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// FileVersion is the current on-disk envelope version.
const FileVersion = 1

// envelope is the on-disk format: a version field wrapping the position
// array for forward compatibility. Files written before the envelope was
// introduced are bare arrays and are still accepted on load.
type envelope struct {
	Version   int                  `json:"version"`
	Positions []types.OpenPosition `json:"positions"`
}

// Patch is a partial update applied to a stored position. Absent fields are
// left untouched.
type Patch struct {
	ToAmount      optional.Option[float64]
	EntryPrice    optional.Option[float64]
	HighWaterMark optional.Option[float64]
	Reason        optional.Option[string]
	Error         optional.Option[string]
}

// Store is a JSON-file-backed collection of open positions. All mutations
// rewrite the whole file; position counts are small (tens at most) so this
// stays cheap. Writes go through a temp file and rename, and the in-memory
// mutation is reverted if the write fails, so memory and disk never diverge.
type Store struct {
	path      string
	log       *logger.Logger
	mu        sync.Mutex
	positions []types.OpenPosition
	loaded    bool
}

// New creates a store backed by the JSON file at path. Load must be called
// before any other operation.
func New(path string, log *logger.Logger) *Store {
	return &Store{
		path: path,
		log:  log.Named("store"),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file. A missing file initializes an empty store and
// creates the file. Any other read or parse failure logs and resets to an
// empty in-memory collection without failing the process.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.positions = []types.OpenPosition{}
			s.loaded = true

			if persistErr := s.persistLocked(); persistErr != nil {
				return persistErr
			}

			s.log.Info("initialized empty position store", zap.String("path", s.path))

			return nil
		}

		s.log.Error("failed to read position store, resetting to empty", zap.String("path", s.path), zap.Error(err))
		s.positions = []types.OpenPosition{}
		s.loaded = true

		return nil
	}

	positions, err := decodePositions(data)
	if err != nil {
		s.log.Error("failed to parse position store, resetting to empty", zap.String("path", s.path), zap.Error(err))
		s.positions = []types.OpenPosition{}
		s.loaded = true

		return nil
	}

	s.positions = positions
	s.loaded = true

	s.log.Info("loaded position store", zap.String("path", s.path), zap.Int("positions", len(positions)))

	return nil
}

func decodePositions(data []byte) ([]types.OpenPosition, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version > 0 {
		if env.Positions == nil {
			return []types.OpenPosition{}, nil
		}

		return env.Positions, nil
	}

	// Legacy format: a bare array of positions.
	var positions []types.OpenPosition
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, err
	}

	if positions == nil {
		positions = []types.OpenPosition{}
	}

	return positions, nil
}

// List returns a snapshot copy of the current open positions.
func (s *Store) List() []types.OpenPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.OpenPosition, len(s.positions))
	copy(out, s.positions)

	return out
}

// Has reports whether any stored position matches the predicate.
func (s *Store) Has(matcher func(types.OpenPosition) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.positions {
		if matcher(p) {
			return true
		}
	}

	return false
}

// HasSymbol reports whether an open position exists for the given target
// asset symbol.
func (s *Store) HasSymbol(symbol string) bool {
	return s.Has(func(p types.OpenPosition) bool {
		return p.ToAsset.Symbol == symbol
	})
}

// Add appends a position and persists. The position ID must be unique
// across the store. On write failure the in-memory append is reverted and
// the error propagated.
func (s *Store) Add(position types.OpenPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return errors.New(errors.ErrCodeStoreNotLoaded, "Add called before Load")
	}

	if position.ID == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "position ID must not be empty")
	}

	for _, p := range s.positions {
		if p.ID == position.ID {
			return errors.Newf(errors.ErrCodeDuplicatePositionID, "position %s already exists", position.ID)
		}
	}

	s.positions = append(s.positions, position)

	if err := s.persistLocked(); err != nil {
		s.positions = s.positions[:len(s.positions)-1]

		return err
	}

	s.log.Info("added position",
		zap.String("id", position.ID),
		zap.String("symbol", position.ToAsset.Symbol),
		zap.Float64("entryPrice", position.EntryPrice))

	return nil
}

// Update merges the patch into the position with the given ID and persists.
// An unknown ID logs a warning and no-ops. On write failure the in-memory
// merge is reverted and the error propagated.
func (s *Store) Update(id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return errors.New(errors.ErrCodeStoreNotLoaded, "Update called before Load")
	}

	idx := -1
	for i, p := range s.positions {
		if p.ID == id {
			idx = i

			break
		}
	}

	if idx == -1 {
		s.log.Warn("update for unknown position", zap.String("id", id))

		return nil
	}

	previous := s.positions[idx]
	applyPatch(&s.positions[idx], patch)

	if err := s.persistLocked(); err != nil {
		s.positions[idx] = previous

		return err
	}

	return nil
}

func applyPatch(p *types.OpenPosition, patch Patch) {
	if patch.ToAmount.IsSome() {
		p.ToAmount = patch.ToAmount.Unwrap()
	}

	if patch.EntryPrice.IsSome() {
		p.EntryPrice = patch.EntryPrice.Unwrap()
	}

	if patch.HighWaterMark.IsSome() {
		p.HighWaterMark = patch.HighWaterMark.Unwrap()
	}

	if patch.Reason.IsSome() {
		p.Reason = patch.Reason.Unwrap()
	}

	if patch.Error.IsSome() {
		p.Error = patch.Error.Unwrap()
	}
}

// Remove deletes the position with the given ID and persists. An unknown ID
// logs a warning and no-ops. On write failure the in-memory removal is
// reverted and the error propagated.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return errors.New(errors.ErrCodeStoreNotLoaded, "Remove called before Load")
	}

	idx := -1
	for i, p := range s.positions {
		if p.ID == id {
			idx = i

			break
		}
	}

	if idx == -1 {
		s.log.Warn("remove for unknown position", zap.String("id", id))

		return nil
	}

	removed := s.positions[idx]
	s.positions = append(s.positions[:idx], s.positions[idx+1:]...)

	if err := s.persistLocked(); err != nil {
		s.positions = append(s.positions, types.OpenPosition{})
		copy(s.positions[idx+1:], s.positions[idx:])
		s.positions[idx] = removed

		return err
	}

	s.log.Info("removed position", zap.String("id", id), zap.String("symbol", removed.ToAsset.Symbol))

	return nil
}

// Count returns the number of open positions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.positions)
}

// persistLocked writes the envelope atomically: marshal to a temp file in
// the same directory, then rename over the target. Callers hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(envelope{
		Version:   FileVersion,
		Positions: s.positions,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to marshal positions", err)
	}

	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%s-*", filepath.Base(s.path)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create temp file", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write temp file", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to close temp file", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to replace store file", err)
	}

	return nil
}
