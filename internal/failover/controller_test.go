package failover

import (
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"

	"soloist.io/internal/config"
)

type fakeProber struct {
	active map[string]bool // "" is the local node
}

func (f *fakeProber) IsActive(host string) bool {
	return f.active[host]
}

type fakeLifecycle struct {
	activated   []string
	deactivated []string
	failNext    bool
	onActivate  func(host string)
}

func (f *fakeLifecycle) Activate(host string) bool {
	f.activated = append(f.activated, host)
	if f.failNext {
		f.failNext = false
		return false
	}
	if f.onActivate != nil {
		f.onActivate(host)
	}
	return true
}

func (f *fakeLifecycle) Deactivate(host string) bool {
	f.deactivated = append(f.deactivated, host)
	return true
}

type fakeResolver struct {
	decisions map[string]Decision
	resolved  []string
}

func (f *fakeResolver) Resolve(host string) Decision {
	f.resolved = append(f.resolved, host)
	return f.decisions[host]
}

func testController(priority int, peers []string, prober *fakeProber, lc *fakeLifecycle, res *fakeResolver) *Controller {
	return NewController(
		log.NewNopLogger(),
		&config.Config{HeartbeatInterval: 5 * time.Second, PriorityWait: 5 * time.Second},
		&config.Membership{Self: "beta", Peers: peers, Priority: priority},
		prober, lc, res,
	)
}

// Exactly one active instance: nothing to resolve, no commands issued.
func TestCycleIdle(t *testing.T) {
	lc := &fakeLifecycle{}
	res := &fakeResolver{}

	// The one instance is ours.
	c := testController(1, []string{"alpha", "gamma"}, &fakeProber{active: map[string]bool{"": true}}, lc, res)
	assert.False(t, c.cycle(false))
	assert.Empty(t, res.resolved)
	assert.Empty(t, lc.activated)
	assert.Empty(t, lc.deactivated)

	// The one instance is a peer's.
	c = testController(1, []string{"alpha", "gamma"}, &fakeProber{active: map[string]bool{"gamma": true}}, lc, res)
	assert.False(t, c.cycle(false))
	assert.Empty(t, res.resolved)
	assert.Empty(t, lc.activated)
	assert.Empty(t, lc.deactivated)
}

// Zero active and highest priority: activate immediately, no backoff.
func TestCycleActivatePriorityZero(t *testing.T) {
	lc := &fakeLifecycle{}
	c := testController(0, []string{"alpha", "gamma"}, &fakeProber{active: map[string]bool{}}, lc, &fakeResolver{})

	assert.False(t, c.cycle(false))
	assert.Equal(t, []string{""}, lc.activated)
}

// Zero active and lower priority: first cycle only arms the backoff,
// the re-poll activates if the cluster is still empty.
func TestCyclePriorityBackoff(t *testing.T) {
	lc := &fakeLifecycle{}
	c := testController(2, []string{"alpha", "gamma"}, &fakeProber{active: map[string]bool{}}, lc, &fakeResolver{})

	assert.True(t, c.cycle(false), "first empty poll should enter the priority wait")
	assert.Empty(t, lc.activated)

	assert.False(t, c.cycle(true), "second empty poll should activate")
	assert.Equal(t, []string{""}, lc.activated)
}

// A peer activating during the backoff window cancels self-activation.
func TestCyclePeerWinsBackoff(t *testing.T) {
	lc := &fakeLifecycle{}
	prober := &fakeProber{active: map[string]bool{}}
	c := testController(2, []string{"alpha", "gamma"}, prober, lc, &fakeResolver{})

	assert.True(t, c.cycle(false))

	prober.active["alpha"] = true
	assert.False(t, c.cycle(true))
	assert.Empty(t, lc.activated)
}

// Split brain where the peer's checkpoint wins: deactivate self and
// stop contending for the rest of the cycle.
func TestCycleSplitBrainKeepRemote(t *testing.T) {
	lc := &fakeLifecycle{}
	res := &fakeResolver{decisions: map[string]Decision{"alpha": KeepRemote}}
	prober := &fakeProber{active: map[string]bool{"": true, "alpha": true, "gamma": true}}
	c := testController(1, []string{"alpha", "gamma"}, prober, lc, res)

	assert.False(t, c.cycle(false))
	assert.Equal(t, []string{"alpha"}, res.resolved, "after ceding to alpha, gamma must not be compared")
	assert.Equal(t, []string{""}, lc.deactivated)
	assert.Empty(t, lc.activated)
}

// Split brain where our checkpoint wins: deactivate the peer, keep
// running.
func TestCycleSplitBrainKeepSelf(t *testing.T) {
	lc := &fakeLifecycle{}
	res := &fakeResolver{decisions: map[string]Decision{"gamma": KeepSelf}}
	prober := &fakeProber{active: map[string]bool{"": true, "gamma": true}}
	c := testController(1, []string{"alpha", "gamma"}, prober, lc, res)

	assert.False(t, c.cycle(false))
	assert.Equal(t, []string{"gamma"}, res.resolved)
	assert.Equal(t, []string{"gamma"}, lc.deactivated)
}

// Standby list [alpha, beta, gamma], running as beta: no instance
// anywhere, so the loop sleeps a heartbeat, arms the backoff, sleeps
// 1x the priority unit, re-polls, and activates itself.
func TestRunPriorityScenario(t *testing.T) {
	prober := &fakeProber{active: map[string]bool{}}
	lc := &fakeLifecycle{onActivate: func(host string) { prober.active[host] = true }}
	c := testController(1, []string{"alpha", "gamma"}, prober, lc, &fakeResolver{})

	var sleeps []time.Duration
	c.sleep = func(d time.Duration) bool {
		sleeps = append(sleeps, d)
		return len(sleeps) < 4
	}

	c.Run(make(chan struct{}))

	assert.Equal(t, []time.Duration{
		5 * time.Second, // heartbeat before the first poll
		5 * time.Second, // priority 1 x the backoff unit
		5 * time.Second, // back to heartbeats once active
		5 * time.Second,
	}, sleeps)
	assert.Equal(t, []string{""}, lc.activated)
}

// Same scenario at priority 2: the backoff sleep is 2x the unit.
func TestRunPriorityTwoBackoff(t *testing.T) {
	lc := &fakeLifecycle{}
	c := testController(2, []string{"alpha", "gamma"}, &fakeProber{active: map[string]bool{}}, lc, &fakeResolver{})

	var sleeps []time.Duration
	c.sleep = func(d time.Duration) bool {
		sleeps = append(sleeps, d)
		return len(sleeps) < 3
	}

	c.Run(make(chan struct{}))

	assert.Equal(t, []time.Duration{
		5 * time.Second,
		10 * time.Second,
		5 * time.Second,
	}, sleeps)
	assert.Equal(t, []string{""}, lc.activated)
}

// A failed activation isn't fatal; the next cycle tries again.
func TestCycleActivationFailure(t *testing.T) {
	lc := &fakeLifecycle{failNext: true}
	c := testController(0, []string{"alpha"}, &fakeProber{active: map[string]bool{}}, lc, &fakeResolver{})

	assert.False(t, c.cycle(false))
	assert.False(t, c.cycle(false))
	assert.Equal(t, []string{"", ""}, lc.activated)
}
