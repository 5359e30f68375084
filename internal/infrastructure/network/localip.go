// Package network reports the host's LAN address to clients of the bridge.
package network

import (
	"net"
	"strings"
)

// LoopbackIP is reported when no LAN address qualifies
const LoopbackIP = "127.0.0.1"

// InterfaceAddr is one address bound to a network interface
type InterfaceAddr struct {
	Interface string
	IP        net.IP
	Loopback  bool
}

// LocalIP returns the first non-internal IPv4 address whose last octet is
// not 1, in interface order. Gateway-style addresses ending in ".1" are
// skipped.
func LocalIP() string {
	addrs, err := InterfaceAddrs()
	if err != nil {
		return LoopbackIP
	}
	return PickLocalIP(addrs)
}

// InterfaceAddrs lists the addresses of every interface that is up
func InterfaceAddrs() ([]InterfaceAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var result []InterfaceAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil {
				continue
			}
			result = append(result, InterfaceAddr{
				Interface: iface.Name,
				IP:        ip,
				Loopback:  iface.Flags&net.FlagLoopback != 0 || ip.IsLoopback(),
			})
		}
	}
	return result, nil
}

// PickLocalIP applies the LocalIP selection rule to a list of addresses
func PickLocalIP(addrs []InterfaceAddr) string {
	for _, a := range addrs {
		if a.Loopback {
			continue
		}
		v4 := a.IP.To4()
		if v4 == nil {
			continue
		}
		s := v4.String()
		if strings.HasSuffix(s, ".1") {
			continue
		}
		return s
	}
	return LoopbackIP
}
