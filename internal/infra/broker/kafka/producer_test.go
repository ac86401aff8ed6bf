package kafka

import (
	"testing"

	"github.com/IBM/sarama"
)

// Sarama validates the producer config at construction time, before any
// broker is contacted, so a config it rejects kills startup outright.
func TestProducerConfig_PassesValidation(t *testing.T) {
	cfg := producerConfig(nil)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if !cfg.Producer.Idempotent {
		t.Error("Producer.Idempotent = false, want true")
	}
	if cfg.Producer.RequiredAcks != sarama.WaitForAll {
		t.Errorf("Producer.RequiredAcks = %v, want WaitForAll", cfg.Producer.RequiredAcks)
	}
	if cfg.Net.MaxOpenRequests != 1 {
		t.Errorf("Net.MaxOpenRequests = %d, want 1", cfg.Net.MaxOpenRequests)
	}
}

// A caller-supplied config gets the same treatment: idempotent mode must
// not be combined with the default in-flight request limit.
func TestProducerConfig_OverridesCallerInFlightLimit(t *testing.T) {
	custom := sarama.NewConfig()
	custom.Net.MaxOpenRequests = 5

	cfg := producerConfig(custom)

	if cfg.Net.MaxOpenRequests != 1 {
		t.Errorf("Net.MaxOpenRequests = %d, want 1", cfg.Net.MaxOpenRequests)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}
