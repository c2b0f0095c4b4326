package denylist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/gqlgate/gqlgate/internal/config"
)

const (
	BufferItems = 64
	ElementCost = 1
	// The actual need is 56 (size of ristretto's storeItem struct)
	StoreItemSize = 128
)

// DeniedTokens is an in-memory set of revoked authorization tokens loaded at
// startup from a newline-delimited file.
type DeniedTokens struct {
	Cache       *ristretto.Cache
	ElementsNum int64
}

func New(cfg *config.Denylist, logger zerolog.Logger) (*DeniedTokens, error) {

	if cfg.Tokens.File == "" {
		return nil, nil
	}

	var totalEntries int64

	// open tokens storage
	f, err := os.Open(cfg.Tokens.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// count non-empty entries to size the cache
	c := bufio.NewScanner(f)
	for c.Scan() {
		if c.Text() != "" {
			totalEntries += 1
		}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	// go to the beginning of the storage file
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	logger.Debug().Msgf("Denylist: total entries (lines) found in the file: %d", totalEntries)

	// max cost = total entries * size of ristretto's storeItem struct
	maxCost := totalEntries * StoreItemSize

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10, // recommended value
		MaxCost:     maxCost,
		BufferItems: BufferItems,
	})
	if err != nil {
		return nil, err
	}

	var numOfElements int64

	// tokens loading to the cache
	s := bufio.NewScanner(f)
	for s.Scan() {
		if s.Text() == "" {
			continue
		}
		if ok := cache.Set(strings.TrimSpace(s.Text()), nil, ElementCost); ok {
			numOfElements += 1
		} else {
			logger.Error().Msgf("Denylist: can't add the token to the cache: %s", s.Text())
		}
		cache.Wait()
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return &DeniedTokens{Cache: cache, ElementsNum: numOfElements}, nil
}
