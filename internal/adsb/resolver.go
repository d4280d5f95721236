package adsb

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/yegors/adsb-proxy/pkg/logger"
)

// SourceLocal labels data read from the local file
const SourceLocal = "local"

// ErrNoDataSources is returned when neither source produced data
var ErrNoDataSources = errors.New("no data sources available")

// Source is what the resolver needs from the client
type Source interface {
	ReadLocal() (*LocalSnapshot, error)
	FetchRemote(ctx context.Context) (*RemoteResponse, error)
}

// Resolver picks the data source for each request: local first, remote
// fallback, and an empty local snapshot before giving up.
type Resolver struct {
	source        Source
	remoteEnabled bool
	remoteName    string
	now           func() time.Time
	logger        *logger.Logger
}

// NewResolver creates a new resolver
func NewResolver(source Source, remoteEnabled bool, remoteName string, logger *logger.Logger) *Resolver {
	return &Resolver{
		source:        source,
		remoteEnabled: remoteEnabled,
		remoteName:    remoteName,
		now:           time.Now,
		logger:        logger.Named("adsb-resolver"),
	}
}

// Resolve returns the snapshot to serve and the label of the source it came from
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	local := r.readLocal()

	if local != nil && local.AircraftCount() > 0 {
		r.logger.Debug("Serving local data", logger.Int("aircraft_count", local.AircraftCount()))
		return &Resolution{Source: SourceLocal, Data: local, AircraftCount: local.AircraftCount()}, nil
	}

	if r.remoteEnabled {
		reason := "local file not found"
		if local != nil {
			reason = "0 aircraft from local"
		}
		r.logger.Info("Falling back to remote source",
			logger.String("source", r.remoteName),
			logger.String("reason", reason),
		)

		resolution, err := r.fetchRemote(ctx)
		if err == nil {
			return resolution, nil
		}
		r.logger.Warn("Remote fallback failed",
			logger.String("source", r.remoteName),
			logger.Error(err),
		)
	}

	if local != nil {
		return &Resolution{Source: SourceLocal, Data: local, AircraftCount: 0}, nil
	}

	return nil, ErrNoDataSources
}

// readLocal returns nil for any failure. A missing file is expected while the
// decoder is down; anything else is logged louder so it does not go unnoticed.
func (r *Resolver) readLocal() *LocalSnapshot {
	local, err := r.source.ReadLocal()
	if err == nil {
		return local
	}

	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("Local snapshot not present", logger.Error(err))
	} else {
		r.logger.Warn("Local snapshot unusable", logger.Error(err))
	}
	return nil
}

func (r *Resolver) fetchRemote(ctx context.Context) (*Resolution, error) {
	resp, err := r.source.FetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := Translate(resp, r.now())
	r.logger.Info("Serving remote data",
		logger.String("source", r.remoteName),
		logger.Int("aircraft_count", len(snapshot.Aircraft)),
	)

	return &Resolution{Source: r.remoteName, Data: snapshot, AircraftCount: len(snapshot.Aircraft)}, nil
}
