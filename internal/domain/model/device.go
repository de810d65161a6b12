package model

import "sync"

// DeviceIDKey is the status key holding the device's hardware identifier.
const DeviceIDKey = "DeviceId"

// DeviceStatus is the last known state of one physical device.
//
// The coordinator replaces the whole snapshot on every poll. Switches read it on
// every access and write single keys after an acknowledged command; such writes
// are a hint that the next Replace overwrites unconditionally.
type DeviceStatus struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewDeviceStatus(values map[string]any) *DeviceStatus {
	s := &DeviceStatus{}
	s.Replace(values)
	return s
}

func (s *DeviceStatus) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores an optimistic value for key.
func (s *DeviceStatus) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Replace installs an authoritative snapshot. The map is copied.
func (s *DeviceStatus) Replace(values map[string]any) {
	next := make(map[string]any, len(values))
	for k, v := range values {
		next[k] = v
	}
	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
}

func (s *DeviceStatus) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SameValue compares two status values. Numbers compare by value regardless of
// their Go type, so a catalog integer matches a decoded JSON float64.
func SameValue(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
