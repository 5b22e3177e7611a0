package substrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"member-faucet/internal/chain"
)

func decodeMetadata(t *testing.T, buf []byte) map[protowire.Number]string {
	t.Helper()
	fields := map[protowire.Number]string{}
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			t.Fatalf("consuming tag: %v", protowire.ParseError(n))
		}
		buf = buf[n:]
		assert.Equal(t, protowire.BytesType, typ)
		value, n := protowire.ConsumeString(buf)
		if n < 0 {
			t.Fatalf("consuming value: %v", protowire.ParseError(n))
		}
		buf = buf[n:]
		fields[num] = value
	}
	return fields
}

func TestEncodeMembershipMetadata(t *testing.T) {
	assert := assert.New(t)

	t.Run("all fields", func(t *testing.T) {
		buf := encodeMembershipMetadata(chain.NewMember{
			Name:   "Alice",
			Avatar: "https://example.com/a.png",
			About:  "hello",
		})
		fields := decodeMetadata(t, buf)
		assert.Equal("Alice", fields[metadataFieldName])
		assert.Equal("https://example.com/a.png", fields[metadataFieldAvatarURI])
		assert.Equal("hello", fields[metadataFieldAbout])
	})

	t.Run("empty fields are omitted", func(t *testing.T) {
		buf := encodeMembershipMetadata(chain.NewMember{Name: "Alice"})
		fields := decodeMetadata(t, buf)
		assert.Len(fields, 1)
	})

	t.Run("no fields", func(t *testing.T) {
		assert.Empty(encodeMembershipMetadata(chain.NewMember{}))
	})

	t.Run("external resources", func(t *testing.T) {
		buf := encodeMembershipMetadata(chain.NewMember{
			ExternalResources: []chain.ExternalResource{
				{Type: "DISCORD", Value: "alice#1234"},
				{Type: "CARRIER_PIGEON", Value: "coop 7"},
				{Type: "EMAIL", Value: ""},
			},
		})
		fields := decodeMetadata(t, buf)
		// the unrepresentable and empty resources are dropped
		assert.Len(fields, 1)

		sub := []byte(fields[metadataFieldExternalResources])
		num, typ, n := protowire.ConsumeTag(sub)
		assert.Equal(protowire.Number(resourceFieldType), num)
		assert.Equal(protowire.VarintType, typ)
		sub = sub[n:]
		code, n := protowire.ConsumeVarint(sub)
		assert.Equal(resourceTypeCodes["DISCORD"], code)
		sub = sub[n:]
		num, _, n = protowire.ConsumeTag(sub)
		assert.Equal(protowire.Number(resourceFieldValue), num)
		sub = sub[n:]
		value, _ := protowire.ConsumeString(sub)
		assert.Equal("alice#1234", value)
	})
}
