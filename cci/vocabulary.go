// Package cci defines the Common Cube Interface: the TLV field
// vocabulary layered over a cube's payload region (C5), independent of
// positional cube layout (which lives in package cube).
package cci

// Field type space, partitioned per spec.md §3. Only 0x00-0x3F is
// meaningful; 0x40-0xFF is unused by this revision of the vocabulary.
const (
	// CCIEnd is the stop marker: parsing halts here, and everything
	// after it up to the back positionals is surfaced as one synthetic
	// REMAINDER field.
	CCIEnd uint16 = 0x00

	// 0x01-0x0F: reserved standard CCI fields.
	Application uint16 = 0x01
	SubkeySeed  uint16 = 0x02

	// 0x10-0x1F: standard application-facing fields.
	Payload      uint16 = 0x10
	ContentName  uint16 = 0x11
	Description  uint16 = 0x12
	RelatesTo    uint16 = 0x13
	Username     uint16 = 0x14
	MediaType    uint16 = 0x15
	Avatar       uint16 = 0x16
	Padding      uint16 = 0x17
	Encrypted    uint16 = 0x18
	CryptoNonce  uint16 = 0x19
	CryptoPubkey uint16 = 0x1A

	// 0x30-0x3F: application-private custom fields. Individual codes
	// are not defined by the core; applications mint their own within
	// this range.
	CustomRangeStart uint16 = 0x30
	CustomRangeEnd   uint16 = 0x3F
)

// Synthetic field types. These never appear on the wire; the parser
// (package wire) manufactures them to surface bytes it didn't TLV-parse.
const (
	Remainder  uint16 = 0x1000
	RawContent uint16 = 0x1001
)

// LengthTable maps a TLV field type to its fixed byte length. A type
// absent from this map is variable-length. CCIEnd is fixed-length-zero:
// it is encoded as a single type byte with no length prefix and no
// body, exactly like a positional field (spec.md §4.2).
var LengthTable = map[uint16]int{
	CCIEnd:       0,
	RelatesTo:    33, // 1-byte relationship type + 32-byte remote key
	MediaType:    1,
	CryptoNonce:  24,
	CryptoPubkey: 32,
}

// Names is a human-readable label table, used only for diagnostics.
var Names = map[uint16]string{
	CCIEnd:       "CCI_END",
	Application:  "APPLICATION",
	SubkeySeed:   "SUBKEY_SEED",
	Payload:      "PAYLOAD",
	ContentName:  "CONTENTNAME",
	Description:  "DESCRIPTION",
	RelatesTo:    "RELATES_TO",
	Username:     "USERNAME",
	MediaType:    "MEDIA_TYPE",
	Avatar:       "AVATAR",
	Padding:      "PADDING",
	Encrypted:    "ENCRYPTED",
	CryptoNonce:  "CRYPTO_NONCE",
	CryptoPubkey: "CRYPTO_PUBKEY",
	Remainder:    "REMAINDER",
	RawContent:   "RAWCONTENT",
}

// IsCustom reports whether t falls in the application-private range.
func IsCustom(t uint16) bool {
	return t >= CustomRangeStart && t <= CustomRangeEnd
}

// VariableLengthTypes lists the standard fields this package knows are
// variable-length and therefore eligible for the Veritum splitter's
// in-field splitting (spec.md §4.6.1 step 2a). Any type not in
// LengthTable and not in this list is still treated as variable-length
// by default (custom application fields included) — this list exists
// only to document the ones the core itself produces/consumes.
var VariableLengthTypes = map[uint16]bool{
	Application: true,
	SubkeySeed:  true,
	Payload:     true,
	ContentName: true,
	Description: true,
	Username:    true,
	Avatar:      true,
	Padding:     true,
	Encrypted:   true,
}
