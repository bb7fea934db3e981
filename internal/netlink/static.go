package netlink

import (
	"context"
	"net"
)

// Static is a link that is already up, such as a wired host or one whose
// WiFi is managed outside the node.
type Static struct{}

func (Static) Associate(context.Context, Credentials) error { return nil }

func (Static) Connected(context.Context) (bool, error) { return true, nil }

// Details reports the first non-loopback IPv4 address.
func (Static) Details(context.Context) (Details, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return Details{}, err
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			return Details{IP: v4.String()}, nil
		}
	}
	return Details{}, nil
}
