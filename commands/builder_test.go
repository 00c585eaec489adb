package commands

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var commandName = regexp.MustCompile(`^[-_a-z0-9]{1,32}$`)

func TestGenerateCommands(t *testing.T) {
	cmds := GenerateCommands()
	seen := make(map[string]bool)
	for _, c := range cmds {
		assert.Regexp(t, commandName, c.Name)
		assert.NotEmpty(t, c.Description, c.Name)
		assert.LessOrEqual(t, len(c.Description), 100, c.Name)
		assert.False(t, seen[c.Name], "duplicate %s", c.Name)
		seen[c.Name] = true

		for _, o := range c.Options {
			assert.Regexp(t, commandName, o.Name)
			assert.LessOrEqual(t, len(o.Choices), 25, "%s %s", c.Name, o.Name)
		}
	}
	for _, name := range []string{"addchannelutility", "removechannelutility", "ban", "kick", "reminders", "verification"} {
		assert.True(t, seen[name], name)
	}
}
