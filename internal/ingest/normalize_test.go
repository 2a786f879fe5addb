package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "crlf and cr", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "trailing spaces", in: "a  \t\nb  ", want: "a\nb"},
		{name: "leading spaces kept", in: "a\n   b", want: "a\n   b"},
		{name: "blank runs collapse", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "whitespace-only lines collapse", in: "a\n  \n \t\n\nb", want: "a\n\nb"},
		{name: "outer trim", in: "\n\n  a\nb  \n\n", want: "a\nb"},
		{name: "nfc", in: "Cafe\u0301", want: "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
