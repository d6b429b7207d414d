package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"list", "kafka-1:9092,kafka-2:9092,kafka-3:9092", []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"}},
		{"spaces", " kafka-1:9092 , kafka-2:9092 ", []string{"kafka-1:9092", "kafka-2:9092"}},
		{"trailing comma", "localhost:9092,", []string{"localhost:9092"}},
		{"empty", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseBrokers(tc.in))
		})
	}
}
