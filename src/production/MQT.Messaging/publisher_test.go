package messaging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
)

func TestPublisherTopic(t *testing.T) {
	tests := []struct {
		prefix string
		topic  string
		want   string
	}{
		{"acuario", "alerts/3", "acuario/alerts/3"},
		{"acuario/", "/devices/3/dosing", "acuario/devices/3/dosing"},
		{"", "equipment/skimmer/command", "equipment/skimmer/command"},
	}
	for _, tt := range tests {
		p := NewPublisher(nil, tt.prefix, logger.Nop())
		if got := p.Topic(tt.topic); got != tt.want {
			t.Errorf("Topic(%q, %q) = %q, want %q", tt.prefix, tt.topic, got, tt.want)
		}
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	p := NewPublisher(nil, "acuario", logger.Nop())
	if err := p.Publish(context.Background(), "alerts/1", map[string]string{"a": "b"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish = %v, want ErrNotConnected", err)
	}
	p.Close()
}

func TestTLSConfig(t *testing.T) {
	cfg, err := TLSConfig("")
	if err != nil || cfg.RootCAs != nil {
		t.Fatalf("TLSConfig(\"\") = %+v, %v", cfg, err)
	}

	if _, err := TLSConfig(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(bad, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := TLSConfig(bad); err == nil {
		t.Error("expected an error for a bad CA file")
	}
}
