package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// AdapterInfo describes a registered datasource adapter.
type AdapterInfo struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// AdapterRegistration contains info plus factories for creating adapters.
type AdapterRegistration struct {
	Info                   AdapterInfo
	DryRunFactory          func(ctx context.Context, dsn string, logger *zap.Logger) (DryRunExecutor, error)
	SchemaExtractorFactory func(ctx context.Context, dsn string, logger *zap.Logger) (SchemaExtractor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapter types,
// sorted by type for stable output.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// NewDryRunExecutor creates a dry-run executor for the given datasource type.
func NewDryRunExecutor(ctx context.Context, dsType, dsn string, logger *zap.Logger) (DryRunExecutor, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok || reg.DryRunFactory == nil {
		return nil, fmt.Errorf("no dry-run executor registered for datasource type %q", dsType)
	}
	return reg.DryRunFactory(ctx, dsn, logger)
}

// NewSchemaExtractor creates a schema extractor for the given datasource type.
func NewSchemaExtractor(ctx context.Context, dsType, dsn string, logger *zap.Logger) (SchemaExtractor, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok || reg.SchemaExtractorFactory == nil {
		return nil, fmt.Errorf("no schema extractor registered for datasource type %q", dsType)
	}
	return reg.SchemaExtractorFactory(ctx, dsn, logger)
}
