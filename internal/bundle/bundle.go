// Package bundle reads and writes portable reference-data bundles:
// zstd-compressed JSON snapshots of the manifest, for seeding the cache
// on hosts that cannot reach the reference source.
package bundle

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zstd"

	"pescan/internal/errors"
	"pescan/internal/malapi"
)

// formatVersion marks the bundle layout. Like the cache store, a bundle
// written under a different version is rejected, never migrated.
const formatVersion = 1

// envelope is the serialized bundle shape
type envelope struct {
	FormatVersion int              `json:"formatVersion"`
	Manifest      *malapi.Manifest `json:"manifest"`
}

// Write encodes the manifest into w as a versioned, compressed bundle
func Write(w io.Writer, manifest *malapi.Manifest) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot create bundle compressor", err)
	}

	enc := json.NewEncoder(zw)
	if err := enc.Encode(envelope{FormatVersion: formatVersion, Manifest: manifest}); err != nil {
		_ = zw.Close()
		return errors.New(errors.OutputFailed, "cannot encode bundle", err)
	}

	if err := zw.Close(); err != nil {
		return errors.New(errors.OutputFailed, "cannot finish bundle", err)
	}

	return nil
}

// Read decodes a bundle produced by Write. A bundle that is not zstd, not
// JSON, empty, or versioned differently fails with CACHE_INVALID; nothing
// partial is ever returned.
func Read(r io.Reader) (*malapi.Manifest, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.CacheInvalid, "cannot open bundle", err)
	}
	defer zr.Close()

	var env envelope
	if err := json.NewDecoder(zr).Decode(&env); err != nil {
		return nil, errors.New(errors.CacheInvalid, "bundle is corrupt", err)
	}

	if env.FormatVersion != formatVersion {
		return nil, errors.Newf(errors.CacheInvalid,
			"bundle format version %d does not match %d", env.FormatVersion, formatVersion)
	}
	if env.Manifest == nil || len(env.Manifest.Categories) == 0 {
		return nil, errors.Newf(errors.CacheInvalid, "bundle contains no categories")
	}

	return env.Manifest, nil
}
