package storage

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ISOTimeLayout is the millisecond UTC layout documents use for timestamps.
// Fixed width keeps string order equal to time order.
const ISOTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var tTime = reflect.TypeOf(time.Time{})

// ISOTimeRegistry encodes time.Time as ISO-8601 strings.
// Decoding keeps the driver default, which reads both strings and BSON dates.
func ISOTimeRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tTime, bsoncodec.ValueEncoderFunc(encodeISOTime))
	return reg
}

// ISOTimeCollection returns collection options carrying ISOTimeRegistry.
func ISOTimeCollection() *options.CollectionOptions {
	return options.Collection().SetRegistry(ISOTimeRegistry())
}

func encodeISOTime(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tTime {
		return bsoncodec.ValueEncoderError{Name: "encodeISOTime", Types: []reflect.Type{tTime}, Received: val}
	}
	return vw.WriteString(val.Interface().(time.Time).UTC().Format(ISOTimeLayout))
}
