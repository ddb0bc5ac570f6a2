package failover

import (
	"errors"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
)

type fakeCheckpoints struct {
	remotePullOK bool
	localPullOK  bool
	remoteTS     int64
	localTS      int64
	remoteErr    error
	localErr     error
}

func (f *fakeCheckpoints) Pull(host string) bool {
	if host == "" {
		return f.localPullOK
	}
	return f.remotePullOK
}

func (f *fakeCheckpoints) LatestRemote(host string) (int64, error) {
	return f.remoteTS, f.remoteErr
}

func (f *fakeCheckpoints) LatestLocal() (int64, error) {
	return f.localTS, f.localErr
}

type fakeClock struct {
	skew int64
	err  error
}

func (f *fakeClock) Estimate(host string) (int64, error) {
	return f.skew, f.err
}

func healthyCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{remotePullOK: true, localPullOK: true, remoteTS: 1000, localTS: 1000}
}

func resolver(ckpts *fakeCheckpoints, clock *fakeClock) *ConflictResolver {
	return NewConflictResolver(log.NewNopLogger(), ckpts, clock, "beta.example.com")
}

func TestResolveRemoteNewer(t *testing.T) {
	ckpts := healthyCheckpoints()
	ckpts.remoteTS, ckpts.localTS = 1200, 1000
	assert.Equal(t, KeepRemote, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))
}

func TestResolveLocalNewer(t *testing.T) {
	ckpts := healthyCheckpoints()
	ckpts.remoteTS, ckpts.localTS = 1000, 1200
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))
}

func TestResolveSkewCorrection(t *testing.T) {
	// The peer's checkpoint looks older but its clock runs behind;
	// corrected, it's newer.
	ckpts := healthyCheckpoints()
	ckpts.remoteTS, ckpts.localTS = 1000, 1200
	assert.Equal(t, KeepRemote, resolver(ckpts, &fakeClock{skew: 300}).Resolve("gamma.example.com"))
}

func TestResolveTie(t *testing.T) {
	// Equal corrected timestamps: byte-wise smaller hostname wins.
	ckpts := healthyCheckpoints()
	assert.Equal(t, KeepRemote, resolver(ckpts, &fakeClock{}).Resolve("alpha.example.com"))
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))
}

// The conservative failure ladder: an unreachable peer can't take
// over, a node with broken local sync cedes, diagnostic failures keep
// the status quo.
func TestResolveFailures(t *testing.T) {
	ckpts := healthyCheckpoints()
	ckpts.remotePullOK = false
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))

	ckpts = healthyCheckpoints()
	ckpts.localPullOK = false
	assert.Equal(t, KeepRemote, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))

	ckpts = healthyCheckpoints()
	ckpts.remoteTS = 9999 // would win, but the skew read fails
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{err: errors.New("no route to host")}).Resolve("gamma.example.com"))

	ckpts = healthyCheckpoints()
	ckpts.remoteErr = errors.New("no synced checkpoint found")
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))

	ckpts = healthyCheckpoints()
	ckpts.localErr = errors.New("no local checkpoint found")
	assert.Equal(t, KeepSelf, resolver(ckpts, &fakeClock{}).Resolve("gamma.example.com"))
}
