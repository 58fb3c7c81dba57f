package cloud

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"
)

// newGuardedTransport returns a transport whose dialer refuses non-public
// addresses unless allowPrivate is set. The check runs on the resolved
// address, so DNS names pointing inside the network are caught as well.
func newGuardedTransport(allowPrivate bool) *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = refusePrivateAddress
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would be dialled instead of the target and bypass the guard
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
}

func refusePrivateAddress(network, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !isPublicAddr(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, addrPort.Addr())
	}
	return nil
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// scopedTokenTransport adds the bearer token to https requests for
// allow-listed hosts only. Every hop of a redirect chain is checked on its own.
type scopedTokenTransport struct {
	plain  http.RoundTripper
	authed http.RoundTripper
	hosts  map[string]struct{}
}

func newScopedTokenTransport(base http.RoundTripper, token string, hosts []string) *scopedTokenTransport {
	t := &scopedTokenTransport{
		plain: base,
		authed: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
		hosts: make(map[string]struct{}, len(hosts)),
	}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			t.hosts[h] = struct{}{}
		}
	}
	return t
}

func (t *scopedTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.allowed(req.URL) {
		return t.authed.RoundTrip(req)
	}
	return t.plain.RoundTrip(req)
}

func (t *scopedTokenTransport) allowed(u *url.URL) bool {
	if u.Scheme != "https" {
		return false
	}
	if _, ok := t.hosts[strings.ToLower(u.Host)]; ok {
		return true
	}
	_, ok := t.hosts[strings.ToLower(u.Hostname())]
	return ok
}
