package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticAuthorizer(t *testing.T) {
	a := NewStatic("owner, admin", "resolver")

	assert.True(t, a.IsOwner("owner"))
	assert.True(t, a.IsOwner("admin")) // espaços aparados
	assert.False(t, a.IsOwner("resolver"))

	assert.True(t, a.IsAuthorizedResolver("resolver"))
	assert.False(t, a.IsAuthorizedResolver("owner"))
	assert.False(t, a.IsAuthorizedResolver(""))
}
