package objstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	s := &JetStreamStore{bucket: "blobs"}

	assert.Equal(t, "sessions/1.session", s.objectName("obj://blobs/sessions/1.session"))
	assert.Equal(t, "sessions/1.session", s.objectName("sessions/1.session"))
	assert.Equal(t, "obj://other/x", s.objectName("obj://other/x"))
}
