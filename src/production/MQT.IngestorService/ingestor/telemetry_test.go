package mqtingestor

import (
	"errors"
	"testing"
)

func TestParseTopic(t *testing.T) {
	id, err := ParseTopic("acuario/12/ph")
	if err != nil || id != "12" {
		t.Fatalf("ParseTopic = %q, %v", id, err)
	}

	for _, topic := range []string{"acuario/12", "acuario//ph", "acuario/12/temp", "a/b/12/ph"} {
		if _, err := ParseTopic(topic); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("%s: err = %v", topic, err)
		}
	}
}

func TestParsePayload(t *testing.T) {
	cases := map[string]float64{
		`{"ph": 7.1}`:           7.1,
		`{"ph": "6.85"}`:        6.85,
		`{"ph": 8, "extra": 1}`: 8,
		`7.4`:                   7.4,
		` "6.9" `:               6.9,
	}
	for in, want := range cases {
		got, err := ParsePayload([]byte(in))
		if err != nil || got != want {
			t.Errorf("%s: got %v, %v; want %v", in, got, err, want)
		}
	}

	for _, in := range []string{``, `{}`, `{"ph": null}`, `{"ph": "acid"}`, `abc`, `15`, `-1`, `{"ph":`} {
		if _, err := ParsePayload([]byte(in)); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%q: err = %v", in, err)
		}
	}
}
