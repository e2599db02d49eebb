package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unix path", "/home/dev/webapp", "-home-dev-webapp"},
		{"trailing slash dropped", "/home/dev/webapp/", "-home-dev-webapp"},
		{"nested path", "/srv/teams/alpha", "-srv-teams-alpha"},
		{"root", "/", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodePath(tt.in))
		})
	}
}
