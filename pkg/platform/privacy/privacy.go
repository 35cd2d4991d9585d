// Package privacy reduces personal data before it reaches logs.
package privacy

import "net/netip"

// AnonymizeIP truncates an address to its network prefix: /24 for IPv4 and
// /48 for IPv6. Unparseable input is returned as "invalid".
func AnonymizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	bits := 48
	if addr.Is4() || addr.Is4In6() {
		addr = addr.Unmap()
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}
