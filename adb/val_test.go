package adb

import "testing"

func TestMakeValRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		tag     Tag
		payload uint32
	}{
		{"null", TagSpecial, 0},
		{"small int", TagInt, 42},
		{"max payload", TagBlob32, valPayloadMask},
		{"zero payload object", TagObject, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := MakeVal(c.tag, c.payload)
			if got := v.Tag(); got != c.tag {
				t.Fatalf("Tag() = %v, want %v", got, c.tag)
			}
			if got := v.Payload(); got != c.payload {
				t.Fatalf("Payload() = %d, want %d", got, c.payload)
			}
		})
	}
}

func TestValIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Fatalf("Null.IsNull() = false, want true")
	}
	if MakeVal(TagInt, 1).IsNull() {
		t.Fatalf("non-null Val reported IsNull() = true")
	}
}

func TestMakeValDiscardsOverflowBits(t *testing.T) {
	v := MakeVal(TagInt, 0xFFFFFFFF)
	if got := v.Payload(); got != valPayloadMask {
		t.Fatalf("Payload() = %#x, want %#x", got, valPayloadMask)
	}
}
