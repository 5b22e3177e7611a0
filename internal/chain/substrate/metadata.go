package substrate

import (
	"google.golang.org/protobuf/encoding/protowire"

	"member-faucet/internal/chain"
)

// membership metadata protobuf field numbers
const (
	metadataFieldName              = 1
	metadataFieldAvatarURI         = 3
	metadataFieldAbout             = 4
	metadataFieldExternalResources = 5

	resourceFieldType  = 1
	resourceFieldValue = 2
)

// ResourceType enum values of the membership metadata schema. Resources
// with an unlisted type cannot be represented on chain and are dropped.
var resourceTypeCodes = map[string]uint64{
	"EMAIL":     0,
	"HYPERLINK": 1,
	"WECHAT":    2,
	"WHATSAPP":  3,
	"LINKEDIN":  4,
	"IRC":       5,
	"FACEBOOK":  6,
	"DISCORD":   7,
	"MATRIX":    8,
	"TELEGRAM":  9,
	"TWITTER":   10,
}

// encodeMembershipMetadata wire-encodes the optional member profile fields
// the chain stores alongside a membership.
func encodeMembershipMetadata(member chain.NewMember) []byte {
	var buf []byte
	if member.Name != "" {
		buf = protowire.AppendTag(buf, metadataFieldName, protowire.BytesType)
		buf = protowire.AppendString(buf, member.Name)
	}
	if member.Avatar != "" {
		buf = protowire.AppendTag(buf, metadataFieldAvatarURI, protowire.BytesType)
		buf = protowire.AppendString(buf, member.Avatar)
	}
	if member.About != "" {
		buf = protowire.AppendTag(buf, metadataFieldAbout, protowire.BytesType)
		buf = protowire.AppendString(buf, member.About)
	}
	for _, resource := range member.ExternalResources {
		code, known := resourceTypeCodes[resource.Type]
		if !known || resource.Value == "" {
			continue
		}
		var sub []byte
		sub = protowire.AppendTag(sub, resourceFieldType, protowire.VarintType)
		sub = protowire.AppendVarint(sub, code)
		sub = protowire.AppendTag(sub, resourceFieldValue, protowire.BytesType)
		sub = protowire.AppendString(sub, resource.Value)
		buf = protowire.AppendTag(buf, metadataFieldExternalResources, protowire.BytesType)
		buf = protowire.AppendBytes(buf, sub)
	}
	return buf
}
