package cmd

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerboseFlag(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	tests := []struct {
		name     string
		args     []string
		env      string
		expLevel log.Level
	}{
		{
			name:     "Default",
			args:     nil,
			expLevel: log.InfoLevel,
		},
		{
			name:     "Flag",
			args:     []string{"--verbose"},
			expLevel: log.DebugLevel,
		},
		{
			name:     "Environment",
			args:     nil,
			env:      "true",
			expLevel: log.DebugLevel,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			log.SetLevel(log.InfoLevel)
			t.Setenv(verboseLogKey, test.env)

			cmd := newRootCommand()
			require.NoError(t, cmd.ParseFlags(test.args))
			cmd.PersistentPreRun(cmd, nil)
			assert.Equal(t, test.expLevel, log.GetLevel())
		})
	}
}

func TestCommands(t *testing.T) {
	var names []string
	for _, cmd := range newRootCommand().Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"config", "history", "list", "login", "sync", "version"})
}
