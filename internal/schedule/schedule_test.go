package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRequester struct {
	mu     sync.Mutex
	values []int
}

func (r *recordingRequester) Request(percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, percent)
	return nil
}

func TestScheduler_Replace(t *testing.T) {
	s, err := NewScheduler(&recordingRequester{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.Replace([]Entry{
		{At: "22:30", Brightness: 5},
		{At: "07:00", Brightness: 80},
	}))
	s.Start()

	var runs map[string]time.Time
	require.Eventually(t, func() bool {
		runs = s.NextRuns()
		return len(runs) == 2 && !runs["brightness-22:30"].IsZero()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 22, runs["brightness-22:30"].Hour())
	assert.Equal(t, 30, runs["brightness-22:30"].Minute())

	require.NoError(t, s.Replace([]Entry{{At: "12:00", Brightness: 50}}))
	assert.Eventually(t, func() bool { return len(s.NextRuns()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_RejectsBadTime(t *testing.T) {
	s, err := NewScheduler(&recordingRequester{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	assert.Error(t, s.Replace([]Entry{{At: "noon", Brightness: 50}}))
}

func TestScheduler_FireRequests(t *testing.T) {
	r := &recordingRequester{}
	s, err := NewScheduler(r, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	s.fire(Entry{At: "06:00", Brightness: 70})
	assert.Equal(t, []int{70}, r.values)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock(" 07:05 ")
	require.NoError(t, err)
	assert.Equal(t, uint(7), h)
	assert.Equal(t, uint(5), m)

	for _, bad := range []string{"7pm", "25:00", "12:60", ""} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
