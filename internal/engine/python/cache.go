package python

import (
	"os"
	"strconv"

	"hydralsp/internal/core/errors"
	"hydralsp/internal/shared/observability"
	"hydralsp/internal/shared/util"

	"github.com/cespare/xxhash/v2"
)

type cachedDefinition struct {
	def Definition
	err error
}

// CachingExtractor memoizes definitions by file path, content hash and
// symbol. Edited files hash differently, so entries never go stale; Purge
// only reclaims memory.
type CachingExtractor struct {
	inner *Extractor
	cache *util.LRUCache[string, cachedDefinition]
}

func NewCachingExtractor(inner *Extractor, capacity int) *CachingExtractor {
	return &CachingExtractor{
		inner: inner,
		cache: util.NewLRUCache[string, cachedDefinition](capacity),
	}
}

func (c *CachingExtractor) ExtractFile(path, symbol string) (Definition, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read python source"), errors.CtxPath, path)
	}

	key := path + "\x00" + symbol + "\x00" + strconv.FormatUint(xxhash.Sum64(source), 16)
	if hit, ok := c.cache.Get(key); ok {
		observability.DefinitionCacheTotal.WithLabelValues("hit").Inc()
		return hit.def, hit.err
	}
	observability.DefinitionCacheTotal.WithLabelValues("miss").Inc()

	def, err := c.inner.Extract(source, path, symbol)
	if err == nil || errors.IsCode(err, errors.CodeSymbolNotFound) || errors.IsCode(err, errors.CodePythonParseError) {
		c.cache.Put(key, cachedDefinition{def: def, err: err})
	}
	return def, err
}

func (c *CachingExtractor) Purge() {
	c.cache.Clear()
}

func (c *CachingExtractor) Len() int {
	return c.cache.Len()
}
