package db

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil error", nil, ErrorKindTransient},
		{"invalid uuid", errors.New(`invalid uuid: "xyz"`), ErrorKindPermanent},
		{"foreign key constraint", errors.New("pq: foreign key constraint \"fk_x\" violated"), ErrorKindPermanent},
		{"duplicate key", errors.New("duplicate key value violates unique constraint"), ErrorKindPermanent},
		{"authentication failed", errors.New("pq: authentication failed for user \"x\""), ErrorKindSystemic},
		{"password authentication failed", errors.New("password authentication failed"), ErrorKindSystemic},
		{"role does not exist", errors.New("FATAL: role \"x\" does not exist"), ErrorKindSystemic},
		{"connection reset", errors.New("read: connection reset by peer"), ErrorKindTransient},
		{"context deadline exceeded", errors.New("context deadline exceeded"), ErrorKindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
