package graphql

import (
	"context"
	"fmt"
)

// LimitConfig bounds the traversal a single query argument can request.
type LimitConfig struct {
	DefaultHops int // used when neighbourhood omits hops
	MaxHops     int // larger requests are capped
}

const (
	DefaultHops    = 1
	DefaultMaxHops = 16

	// DefaultMaxBodyBytes caps the size of a POSTed query document.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// DefaultLimitConfig returns the limits applied when none are configured.
func DefaultLimitConfig() LimitConfig {
	return LimitConfig{DefaultHops: DefaultHops, MaxHops: DefaultMaxHops}
}

// ValidateLimitConfig validates the limit configuration
func ValidateLimitConfig(config LimitConfig) error {
	if config.MaxHops <= 0 {
		return fmt.Errorf("max hops must be greater than 0, got %d", config.MaxHops)
	}
	if config.DefaultHops <= 0 {
		return fmt.Errorf("default hops must be greater than 0, got %d", config.DefaultHops)
	}
	if config.DefaultHops > config.MaxHops {
		return fmt.Errorf("default hops (%d) cannot exceed max hops (%d)", config.DefaultHops, config.MaxHops)
	}
	return nil
}

// applyLimit resolves a requested hop count against config. A missing
// request takes the default; anything above the maximum is capped.
func applyLimit(requested *int, config LimitConfig) (int, error) {
	if requested == nil {
		return config.DefaultHops, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("hops must be at least 1, got %d", *requested)
	}
	if *requested > config.MaxHops {
		return config.MaxHops, nil
	}
	return *requested, nil
}

type limitsKey struct{}

func withLimits(ctx context.Context, config LimitConfig) context.Context {
	return context.WithValue(ctx, limitsKey{}, config)
}

func limitsFrom(ctx context.Context) LimitConfig {
	if config, ok := ctx.Value(limitsKey{}).(LimitConfig); ok {
		return config
	}
	return DefaultLimitConfig()
}
