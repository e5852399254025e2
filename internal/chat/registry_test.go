package chat_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateRoom_Returns_Six_Character_Code(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)

	code := registry.CreateRoom()

	req.Len(code, chat.DefaultCodeLength)
	req.Regexp(`^[0-9A-Z]{6}$`, code)
	req.Equal([]string{code}, registry.Codes())
}

func TestRegistry_CreateRoom_Regenerates_On_Collision(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t, chat.WithCodeGenerator(sequence("AB12CD", "AB12CD", "ab12ce")))

	first := registry.CreateRoom()
	second := registry.CreateRoom()

	req.Equal("AB12CD", first)
	req.Equal("AB12CE", second)
	req.Equal(2, registry.Len())
}

func TestRegistry_Freed_Code_Can_Be_Reissued(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t, chat.WithCodeGenerator(sequence("AB12CD")))

	code := registry.CreateRoom()
	old, err := registry.Lookup(code)
	req.NoError(err)
	alice := newRecorder("alice")
	_, _ = old.Join(alice, "Alice")
	old.Leave(alice)
	req.Zero(registry.Len())

	// When the same code is issued again
	req.Equal(code, registry.CreateRoom())

	// Then it is a brand new room
	fresh, err := registry.Lookup(code)
	req.NoError(err)
	req.NotSame(old, fresh)
	req.Zero(fresh.Len())
}

func TestRegistry_Lookup_Normalizes_Code(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t, chat.WithCodeGenerator(sequence("AB12CD")))
	code := registry.CreateRoom()

	room, err := registry.Lookup("  ab12cd ")

	req.NoError(err)
	req.Equal(code, room.Code())
}

func TestRegistry_Lookup_Unknown_Code(t *testing.T) {
	registry := newRegistry(t)

	_, err := registry.Lookup("ZZZZZZ")

	require.ErrorIs(t, err, chat.ErrRoomNotFound)
}

func TestRegistry_Created_Room_Is_Not_Collected_Before_First_Join(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code := registry.CreateRoom()

	req.False(registry.RemoveIfEmpty(code))

	room, err := registry.Lookup(code)
	req.NoError(err)
	_, err = room.Join(newRecorder("alice"), "Alice")
	req.NoError(err)
}

func TestRegistry_SweepPending_Removes_Only_Stale_Unjoined_Rooms(t *testing.T) {
	req := require.New(t)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &manualClock{now: start}
	registry := newRegistry(t,
		chat.WithClock(clock.Now),
		chat.WithCodeGenerator(sequence("AAAAAA", "BBBBBB", "CCCCCC")),
	)

	stale := registry.CreateRoom()
	joined := registry.CreateRoom()
	room, err := registry.Lookup(joined)
	req.NoError(err)
	_, err = room.Join(newRecorder("alice"), "Alice")
	req.NoError(err)

	clock.Set(start.Add(9 * time.Minute))
	recent := registry.CreateRoom()

	clock.Set(start.Add(11 * time.Minute))
	removed := registry.SweepPending(10 * time.Minute)

	req.Equal(1, removed)
	req.Equal([]string{joined, recent}, registry.Codes())
	_, err = registry.Lookup(stale)
	req.ErrorIs(err, chat.ErrRoomNotFound)
}

func TestRegistry_Join_Racing_Last_Leave_Is_Deterministic(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 200; i++ {
		registry := newRegistry(t)
		code := registry.CreateRoom()
		room, err := registry.Lookup(code)
		req.NoError(err)

		leaver := newRecorder("leaver")
		_, err = room.Join(leaver, "Leaver")
		req.NoError(err)

		var (
			wg      sync.WaitGroup
			joinErr error
		)
		joiner := newRecorder("joiner")
		wg.Add(2)
		go func() {
			defer wg.Done()
			room.Leave(leaver)
		}()
		go func() {
			defer wg.Done()
			target, err := registry.Lookup(code)
			if err != nil {
				joinErr = err
				return
			}
			_, joinErr = target.Join(joiner, "Joiner")
		}()
		wg.Wait()

		if joinErr == nil {
			// The join landed first: the room survives with the joiner
			live, err := registry.Lookup(code)
			req.NoError(err, "iteration %d", i)
			req.Equal(1, live.Len())
			continue
		}
		req.ErrorIs(joinErr, chat.ErrRoomNotFound, "iteration %d", i)
		req.Zero(registry.Len(), "iteration %d", i)
	}
}

func TestRegistry_Rooms_Are_Independent(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)

	var wg sync.WaitGroup
	codes := make([]string, 8)
	for i := range codes {
		codes[i] = registry.CreateRoom()
	}
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			room, err := registry.Lookup(code)
			if err != nil {
				t.Errorf("lookup %s: %v", code, err)
				return
			}
			member := newRecorder(fmt.Sprintf("m-%d", i))
			if _, err := room.Join(member, "user"); err != nil {
				t.Errorf("join %s: %v", code, err)
				return
			}
			for n := 0; n < 20; n++ {
				_, _ = room.Append("user", fmt.Sprintf("msg %d", n))
			}
			room.Leave(member)
		}(i, code)
	}
	wg.Wait()

	req.Zero(registry.Len())
}
