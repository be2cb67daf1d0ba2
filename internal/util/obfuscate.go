package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ppiankov/kubepulse/internal/status"
)

// Obfuscator replaces namespace and workload names with deterministic
// placeholders so a report can be shared outside the cluster.
type Obfuscator struct {
	enabled bool
	cache   map[string]string
	mu      sync.RWMutex
}

// NewObfuscator creates a new obfuscator
func NewObfuscator(enabled bool) *Obfuscator {
	return &Obfuscator{
		enabled: enabled,
		cache:   make(map[string]string),
	}
}

// Namespace obfuscates a namespace name
func (o *Obfuscator) Namespace(name string) string {
	if !o.enabled || name == "" {
		return name
	}
	return o.obfuscate("ns", name)
}

// Workload obfuscates a Deployment name
func (o *Obfuscator) Workload(name string) string {
	if !o.enabled || name == "" {
		return name
	}
	return o.obfuscate("wl", name)
}

// Report returns a copy of r with every workload identity obfuscated. The
// synthetic fetch-error entry is left readable.
func (o *Obfuscator) Report(r status.Report) status.Report {
	if !o.enabled {
		return r
	}
	out := status.Report{
		Status:      r.Status,
		Deployments: make([]status.Item, len(r.Deployments)),
	}
	for i, item := range r.Deployments {
		if !item.IsFetchError() {
			item.Namespace = o.Namespace(item.Namespace)
			item.Name = o.Workload(item.Name)
		}
		out.Deployments[i] = item
	}
	return out
}

// obfuscate generates a deterministic fake name from a real name
func (o *Obfuscator) obfuscate(prefix, realName string) string {
	key := prefix + "/" + realName

	o.mu.RLock()
	if cached, exists := o.cache[key]; exists {
		o.mu.RUnlock()
		return cached
	}
	o.mu.RUnlock()

	hash := sha256.Sum256([]byte(realName))
	fakeName := fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(hash[:])[:8])

	o.mu.Lock()
	o.cache[key] = fakeName
	o.mu.Unlock()

	return fakeName
}
