// Package iface resolves capture interfaces by name.
package iface

import (
	"net"
	"sort"

	"firestige.xyz/sniff/internal/core"
)

// Find looks up an interface by its exact name.
func Find(name string) (core.InterfaceID, bool) {
	if name == "" {
		return core.InterfaceID{}, false
	}
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return core.InterfaceID{}, false
	}
	return core.InterfaceID{Name: ifi.Name, Index: ifi.Index}, true
}

// Names lists the interfaces present on the host, sorted.
func Names() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(ifaces))
	for _, ifi := range ifaces {
		names = append(names, ifi.Name)
	}
	sort.Strings(names)
	return names
}
