package station

import "time"

// sessionTimer is the programming session age-out timer. It is only
// touched by the loop goroutine; C returns nil while disarmed so the
// select case never fires.
type sessionTimer struct {
	timer *time.Timer
}

func (t *sessionTimer) arm(d time.Duration) {
	t.stop()
	t.timer = time.NewTimer(d)
}

func (t *sessionTimer) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// fired marks the timer as consumed after its channel delivered.
func (t *sessionTimer) fired() {
	t.timer = nil
}

func (t *sessionTimer) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C
}

func (t *sessionTimer) armed() bool {
	return t.timer != nil
}
