// snapshotfeed.go - auxiliary goroutine supervision for the running
// machine: periodic state publishing plus the IPC media-insert
// listener, both driven from outside the single-threaded CPU loop.
//
// Adapted from runtime_ipc.go's single-goroutine accept loop, scaled
// up to a small supervised group with golang.org/x/sync/errgroup —
// the same package the rest of this core's auxiliary-goroutine
// wiring uses.
package machine

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/cpcdevtools/cpcore/internal/dsk"
	"github.com/cpcdevtools/cpcore/internal/snapshot"
)

// Feed publishes periodic snapshots and listens for IPC media-insert
// requests against a running Machine, all outside the CPU's own
// goroutine: the run loop calls Publish once per frame, and the IPC
// handler mutates Machine state under Lock.
type Feed struct {
	m    *Machine
	lock func(func())

	latest *snapshot.Snapshot
	ipc    *IPCServer
}

// NewFeed builds a Feed for m. lock is called by the IPC handler
// goroutine to serialize access to m against the CPU-driving
// goroutine's own use of it; cmd/cpcore supplies a mutex-backed
// implementation.
func NewFeed(m *Machine, lock func(func())) *Feed {
	return &Feed{m: m, lock: lock}
}

// Publish stores a fresh snapshot, overwriting whatever was
// published for the previous frame. Called once per completed frame
// by the run loop; cheap enough to not matter on the hot path since
// it is only a handful of struct copies plus the RAM slice.
func (f *Feed) Publish() {
	f.latest = f.m.SnapshotNow()
}

// Latest returns the most recently published snapshot, or nil if
// Publish has never been called.
func (f *Feed) Latest() *snapshot.Snapshot { return f.latest }

// Run starts the IPC listener and blocks until ctx is cancelled or
// the listener fails, using an errgroup so a listener failure and a
// context cancellation are reported through the same return path.
func (f *Feed) Run(ctx context.Context) error {
	srv, err := NewIPCServer(f.handleIPC)
	if err != nil {
		return fmt.Errorf("machine: feed: %w", err)
	}
	f.ipc = srv
	srv.Start()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		srv.Stop()
		return ctx.Err()
	})
	return g.Wait()
}

func (f *Feed) handleIPC(cmd, path string) error {
	var err error
	f.lock(func() {
		switch cmd {
		case "disc":
			err = f.insertDisc(path)
		case "snapshot":
			err = f.loadSnapshot(path)
		case "tape":
			err = f.insertTape(path)
		default:
			err = fmt.Errorf("machine: feed: unknown command %q", cmd)
		}
	})
	return err
}

func (f *Feed) insertDisc(path string) error {
	d, err := dsk.LoadFile(path)
	if err != nil {
		return err
	}
	f.m.driveA = d
	f.m.FDC.SetDrive(d)
	return nil
}

func (f *Feed) loadSnapshot(path string) error {
	snap, err := snapshot.LoadFile(path)
	if err != nil {
		return err
	}
	return f.m.Restore(snap)
}

func (f *Feed) insertTape(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return f.m.Tape.Load(data)
}
