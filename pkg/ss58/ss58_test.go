package ss58

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

// well known dev account (Alice), network prefix 42
const aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
const alicePublicKey = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid address", func(t *testing.T) {
		network, accountID, err := Decode(aliceAddress)
		assert.Nil(err)
		assert.Equal(uint16(42), network)
		assert.Equal(alicePublicKey, hex.EncodeToString(accountID))
	})

	t.Run("corrupted checksum", func(t *testing.T) {
		corrupted := aliceAddress[:len(aliceAddress)-1] + "X"
		_, _, err := Decode(corrupted)
		assert.NotNil(err)
	})

	t.Run("not base58", func(t *testing.T) {
		_, _, err := Decode("0OIl")
		assert.ErrorIs(err, ErrInvalidAddress)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := Decode("")
		assert.ErrorIs(err, ErrInvalidAddress)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := Decode("5Grwva")
		assert.ErrorIs(err, ErrInvalidAddress)
	})
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)
	assert.Nil(Validate(aliceAddress))
	assert.NotNil(Validate("not-an-address"))
}
