package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHandshakeCount(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want int
	}{
		{
			name: "one handshake",
			out:  "   1 potential targets\n\n   aa:bb:cc:dd:ee:01  HomeNet  WPA (1 handshake)\n",
			want: 1,
		},
		{
			name: "no handshake",
			out:  "   aa:bb:cc:dd:ee:01  HomeNet  WPA (0 handshake)\n",
			want: 0,
		},
		{
			name: "no match",
			out:  "Opening capture file\nRead 120 packets.\n",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHandshakeCount(tt.out))
		})
	}
}

func TestParseKeyFound(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{
			name: "key found",
			out:  "                 KEY FOUND! [ letmein ]\n",
			want: "letmein",
		},
		{
			name: "key with spaces inside",
			out:  "KEY FOUND! [ pass phrase ]",
			want: "pass phrase",
		},
		{
			name: "exhausted",
			out:  "KEY NOT FOUND\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseKeyFound(tt.out))
		})
	}
}
