package chain

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

const (
	minAddressLen = 20
	maxAddressLen = 128
)

// ValidateAddress checks a withdrawal destination for the named network. TON
// addresses are fully parsed; other networks get a shape check only, since
// the platform never broadcasts and an operator reviews every withdrawal.
func ValidateAddress(network, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("destination address is required")
	}

	if strings.EqualFold(network, "TON") {
		if _, err := address.ParseAddr(addr); err != nil {
			return fmt.Errorf("invalid TON address: %w", err)
		}
		return nil
	}

	if len(addr) < minAddressLen || len(addr) > maxAddressLen {
		return fmt.Errorf("invalid %s address length", network)
	}
	if strings.ContainsAny(addr, " \t\n") {
		return fmt.Errorf("invalid %s address", network)
	}
	return nil
}
