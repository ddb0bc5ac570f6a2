package lifecycle

import (
	"errors"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"

	"soloist.io/internal/config"
)

type fakeExecutor struct {
	fail bool
	ran  []string // "host:command"
}

func (f *fakeExecutor) Output(host, command string) ([]byte, error) {
	return nil, f.Run(host, command)
}

func (f *fakeExecutor) Run(host, command string) error {
	f.ran = append(f.ran, host+":"+command)
	if f.fail {
		return errors.New("exit status 1")
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ActivateCommand:   "start-it",
		DeactivateCommand: "stop-it",
	}
}

func TestActivate(t *testing.T) {
	exec := &fakeExecutor{}
	c := NewController(log.NewNopLogger(), exec, testConfig())

	assert.True(t, c.Activate(""))
	assert.True(t, c.Activate("beta"))
	assert.Equal(t, []string{":start-it", "beta:start-it"}, exec.ran)
}

func TestDeactivate(t *testing.T) {
	exec := &fakeExecutor{}
	c := NewController(log.NewNopLogger(), exec, testConfig())

	assert.True(t, c.Deactivate("beta"))
	assert.Equal(t, []string{"beta:stop-it"}, exec.ran)
}

// A non-zero exit becomes a boolean failure, never an error or a
// panic; the loop's next cycle re-evaluates from scratch.
func TestCommandFailure(t *testing.T) {
	exec := &fakeExecutor{fail: true}
	c := NewController(log.NewNopLogger(), exec, testConfig())

	assert.False(t, c.Activate(""))
	assert.False(t, c.Deactivate("beta"))
}
