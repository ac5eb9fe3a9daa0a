package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddressTON(t *testing.T) {
	// Friendly-format mainnet address.
	err := ValidateAddress("TON", "EQDKbjIcfM6ezt8KjKJJLshZJJSqX7XOA4ff-W72r5gqPrHF")
	assert.NoError(t, err)

	assert.Error(t, ValidateAddress("TON", "not-a-ton-address"))
	assert.Error(t, ValidateAddress("ton", ""))
}

func TestValidateAddressOtherNetworks(t *testing.T) {
	assert.NoError(t, ValidateAddress("TRC20", "TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz"))
	assert.NoError(t, ValidateAddress("ERC20", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))

	assert.Error(t, ValidateAddress("ERC20", ""))
	assert.Error(t, ValidateAddress("ERC20", "short"))
	assert.Error(t, ValidateAddress("ERC20", strings.Repeat("a", 200)))
	assert.Error(t, ValidateAddress("ERC20", "0x742d35Cc6634C0532925a3b844 c454e4438f44e"))
}
