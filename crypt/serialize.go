package crypt

import (
	"verity.dev/core/field"
	"verity.dev/core/wire"
)

func serialize(def *field.FieldDefinition, fields []field.Field) ([]byte, error) {
	return wire.EncodeFields(def, fields)
}

func deserialize(def *field.FieldDefinition, buf []byte) ([]field.Field, error) {
	return wire.DecodeFields(def, buf)
}
