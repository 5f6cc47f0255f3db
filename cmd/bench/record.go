package bench

import (
	"github.com/ValentinKolb/grl/rpc/registration"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/serializer/typed"
)

// RecordName is the registered name of the benchmark record
const RecordName = "grl.bench.Record"

// Record is the message encoded by the benchmarks. The json and codec tags
// are used by the specialized serializers, the grl tags by the generic ones.
type Record struct {
	ID      uint64  `grl:"id,1" json:"id" codec:"id"`
	Name    string  `grl:"name,2" json:"name" codec:"name"`
	Score   float64 `grl:"score,3" json:"score" codec:"score"`
	Active  bool    `grl:"active,4" json:"active" codec:"active"`
	Payload []byte  `grl:"payload,5" json:"payload" codec:"payload"`
	Origin  *Origin `grl:"origin,6" json:"origin,omitempty" codec:"origin,omitempty"`
}

// Origin is nested in Record
type Origin struct {
	Host string `grl:"host,1" json:"host" codec:"host"`
	Port uint32 `grl:"port,2" json:"port" codec:"port"`
}

// typedFormats maps the names of the specialized benchmark formats to their
// serializers. They are registered for *Record only.
var typedFormats = map[string]func() (serializer.ITypedSerializer[*Record], error){
	"typed-json": func() (serializer.ITypedSerializer[*Record], error) {
		return typed.NewJSON[*Record](), nil
	},
	"typed-msgpack": func() (serializer.ITypedSerializer[*Record], error) {
		return typed.NewMsgpack[*Record](), nil
	},
	"typed-cbor": typed.NewCBOR[*Record],
}

func init() {
	registration.Declare(registration.Struct[Record](RecordName))

	for format, create := range typedFormats {
		registration.Declare(func(r *registration.Registrar) error {
			s, err := create()
			if err != nil {
				return err
			}
			return registration.Typed[*Record](format, s)(r)
		})
	}
}

// newRecord returns a record with a payload of size bytes
func newRecord(size int) *Record {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i)
	}
	return &Record{
		ID:      42,
		Name:    "benchmark-record",
		Score:   0.875,
		Active:  true,
		Payload: payload,
		Origin:  &Origin{Host: "localhost", Port: 8080},
	}
}
