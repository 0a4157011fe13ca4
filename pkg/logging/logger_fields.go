package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

// Template names the anatomical template (e.g. "human").
func Template(name string) Field {
	return String("template", name)
}

// NetworkType names the network type (e.g. "circulation").
func NetworkType(name string) Field {
	return String("network", name)
}

func Subsystem(name string) Field {
	return String("subsystem", name)
}

// NodeName is the declared identity of a vessel or nerve segment.
func NodeName(name string) Field {
	return String("node", name)
}

func Region(name string) Field {
	return String("region", name)
}

// CacheKey is the template cache key, "<template>/<network>".
func CacheKey(key string) Field {
	return String("cache_key", key)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
