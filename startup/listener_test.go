package startup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/restaurant-directory/logger"
)

type stubListener struct {
	shutdowns int
}

func (s *stubListener) Listen() error {
	return nil
}

func (s *stubListener) Shutdown(context.Context) error {
	s.shutdowns++
	return nil
}

func (s *stubListener) String() string {
	return "stub"
}

// TestWithListenersSkipsNil checks optional servers can be passed as nil
// without registering a listener.
func TestWithListenersSkipsNil(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	stub := &stubListener{}
	l := NewListeners(logger.Sugar, "Directory", WithListeners([]Listener{stub, nil}))

	assert.Equal(t, "directory", l.String())
	assert.Len(t, l.listeners, 1)

	require.NoError(t, l.Shutdown())
	assert.Equal(t, 1, stub.shutdowns)
}
