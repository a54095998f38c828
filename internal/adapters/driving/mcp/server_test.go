package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil annotation service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnnotationService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Annotations: &mockAnnotationService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("render width defaults without changing the caller's ports", func(t *testing.T) {
		ports := &Ports{Annotations: &mockAnnotationService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.Equal(t, 800.0, server.ports.RenderWidth)
		assert.Zero(t, ports.RenderWidth)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingAnnotationService)
	})

	t.Run("nil annotation service returns error", func(t *testing.T) {
		ports := &Ports{Documents: &mockDocumentService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingAnnotationService)
	})

	t.Run("annotations only is valid", func(t *testing.T) {
		ports := &Ports{Annotations: &mockAnnotationService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Annotations: &mockAnnotationService{},
			Documents:   &mockDocumentService{},
		}
		assert.NoError(t, ports.Validate())
	})
}
