package registry

import (
	"fmt"
	"net"
	"sort"

	"MedFlowScope/internal/config"
)

// Role classifies a device's traffic for safety assessment.
type Role string

const (
	RoleCritical  Role = "critical"
	RoleVideo     Role = "video"
	RoleTelemetry Role = "telemetry"
	RoleOther     Role = "other"
)

// ParseRole converts a config role string into a Role. An empty string maps
// to RoleOther.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCritical, RoleVideo, RoleTelemetry, RoleOther:
		return Role(s), nil
	case "":
		return RoleOther, nil
	default:
		return "", fmt.Errorf("unknown device role %q", s)
	}
}

type entry struct {
	role   Role
	target uint64
}

// Registry maps network addresses to logical device identities and each
// identity to its expected task volume. It is constructed once before
// aggregation and read-only afterwards.
type Registry struct {
	byAddr map[string]string
	byName map[string]entry
}

// UnknownDeviceError reports a device name that has no task target. Every
// name resolvable through the registry must carry a target, so hitting this
// means the registry invariant was violated.
type UnknownDeviceError struct {
	Device string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("no task target configured for device %q", e.Device)
}

// New builds a Registry from the static config contents, validating the
// load-time invariants: parsable addresses, known roles, no duplicate
// addresses, and a task target for every name.
func New(cfg config.RegistryConfig) (*Registry, error) {
	r := &Registry{
		byAddr: make(map[string]string, len(cfg.Devices)),
		byName: make(map[string]entry, len(cfg.Devices)),
	}

	for _, d := range cfg.Devices {
		if d.Name == "" {
			return nil, fmt.Errorf("device entry with address %q has no name", d.Address)
		}
		ip := net.ParseIP(d.Address)
		if ip == nil {
			return nil, fmt.Errorf("device %q has invalid address %q", d.Name, d.Address)
		}
		role, err := ParseRole(d.Role)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.Name, err)
		}
		key := ip.String()
		if existing, ok := r.byAddr[key]; ok {
			return nil, fmt.Errorf("address %s assigned to both %q and %q", key, existing, d.Name)
		}
		r.byAddr[key] = d.Name
		r.byName[d.Name] = entry{role: role, target: d.TaskTargetPackets}
	}

	// Every name produced by Resolve must have a target entry.
	for addr, name := range r.byAddr {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("address %s resolves to %q which has no target entry", addr, name)
		}
	}

	return r, nil
}

// Resolve maps a source address to its device name. The boolean is false for
// unmonitored addresses; such flows are expected and skipped by the caller.
func (r *Registry) Resolve(ip net.IP) (string, bool) {
	name, ok := r.byAddr[ip.String()]
	return name, ok
}

// TaskTarget returns the expected total packet count for the named device.
func (r *Registry) TaskTarget(name string) (uint64, error) {
	e, ok := r.byName[name]
	if !ok {
		return 0, &UnknownDeviceError{Device: name}
	}
	return e.target, nil
}

// Role returns the traffic role for the named device. Unknown names report
// RoleOther.
func (r *Registry) Role(name string) Role {
	e, ok := r.byName[name]
	if !ok {
		return RoleOther
	}
	return e.role
}

// CriticalDevices returns the names of all devices carrying RoleCritical,
// sorted for deterministic iteration.
func (r *Registry) CriticalDevices() []string {
	var names []string
	for name, e := range r.byName {
		if e.role == RoleCritical {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Size returns the number of registered devices.
func (r *Registry) Size() int {
	return len(r.byName)
}
