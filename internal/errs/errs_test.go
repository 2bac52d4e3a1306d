package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := New(KindNotFound, "src/app.go", "file does not exist")

	assert.True(t, errors.Is(err, NotFound))
	assert.False(t, errors.Is(err, Validation))

	wrapped := fmt.Errorf("patching registry: %w", err)
	assert.True(t, errors.Is(wrapped, NotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "subject and message",
			err:  New(KindValidation, "name", "must not be empty"),
			want: "ValidationError: name: must not be empty",
		},
		{
			name: "no subject",
			err:  New(KindTemplate, "", "duplicate unit"),
			want: "TemplateError: duplicate unit",
		},
		{
			name: "wrapped cause",
			err:  Wrap(KindNotFound, "go.mod", fs.ErrNotExist),
			want: "NotFound: go.mod: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindNotFound, "a.txt", fs.ErrNotExist)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Nil(t, Wrap(KindNotFound, "a.txt", nil))
}
