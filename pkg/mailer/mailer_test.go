package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPSender_ParsesAllTemplates(t *testing.T) {
	sender, err := NewSMTPSender(Config{Host: "localhost", Port: 1025})
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestTemplates_EverySubjectHasABody(t *testing.T) {
	for name := range templateSubjects {
		_, ok := templateBodies[name]
		assert.True(t, ok, "template %s has a subject but no body", name)
	}
	for name := range templateBodies {
		_, ok := templateSubjects[name]
		assert.True(t, ok, "template %s has a body but no subject", name)
	}
}
