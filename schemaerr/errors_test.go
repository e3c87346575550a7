package schemaerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindRecoverableViaErrorsAs(t *testing.T) {
	err := DuplicateFieldIDErr("pkg.Foo", 3)

	var target *Error
	ok := errors.As(err, &target)
	assert.True(t, ok)
	assert.Equal(t, DuplicateFieldID, target.Kind)
}

func TestKindStringForUnknownValue(t *testing.T) {
	var k Kind = 999
	assert.Equal(t, "unknown-error-kind", k.String())
}

func TestErrorMessageIncludesKindPrefix(t *testing.T) {
	err := IllegalNamespaceErr("3bad")
	assert.Contains(t, err.Error(), "illegal-namespace")
	assert.Contains(t, err.Error(), "3bad")
}
