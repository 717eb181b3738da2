package binder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ownedDeck creates a session owning A..D with one deck of size slots.
func ownedDeck(t *testing.T, size int) (*Session, Deck) {
	t.Helper()
	s, _ := newTestSession(t)
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, s.Acquire(ctx, id, 1))
	}
	d, err := s.CreateDeck(ctx, "Test deck", size)
	require.NoError(t, err)
	return s, d
}

func TestCreateDeck(t *testing.T) {
	s, _ := newTestSession(t)

	d, err := s.CreateDeck(ctx, "  Aggro  ", 4)
	require.NoError(t, err)

	assert.Equal(t, "deck-1", d.ID)
	assert.Equal(t, "Aggro", d.Name)
	assert.Equal(t, []string{"", "", "", ""}, d.Slots)
	assert.Equal(t, testNow, d.CreatedAt)
	assert.Equal(t, testNow, d.UpdatedAt)

	_, err = s.CreateDeck(ctx, " ", 4)
	assert.True(t, errors.Is(err, ErrInvalidDeck))
	_, err = s.CreateDeck(ctx, "Empty", 0)
	assert.True(t, errors.Is(err, ErrInvalidDeck))
	_, err = s.CreateDeck(ctx, "Huge", MaxSlots+1)
	assert.True(t, errors.Is(err, ErrInvalidDeck))
	assert.Len(t, s.Decks(), 1)
}

func TestPlaceCard(t *testing.T) {
	s, d := ownedDeck(t, 4)

	evicted, err := s.PlaceCard(ctx, d.ID, 0, "A")
	require.NoError(t, err)
	assert.Equal(t, "", evicted)

	evicted, err = s.PlaceCard(ctx, d.ID, 0, "B")
	require.NoError(t, err)
	assert.Equal(t, "A", evicted)

	deck, _ := s.Deck(d.ID)
	assert.Equal(t, []string{"B", "", "", ""}, deck.Slots)
	assert.False(t, deck.Holds("A"), "evicted card is not relocated")
}

func TestPlaceCard_OutOfRange(t *testing.T) {
	s, d := ownedDeck(t, 4)
	before := s.Snapshot()

	_, err := s.PlaceCard(ctx, d.ID, 5, "A")
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))
	_, err = s.PlaceCard(ctx, d.ID, -1, "A")
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))

	assert.Equal(t, before, s.Snapshot())
}

func TestPlaceCard_NotOwned(t *testing.T) {
	s, _ := newTestSession(t)
	d, _ := s.CreateDeck(ctx, "Deck", 4)

	_, err := s.PlaceCard(ctx, d.ID, 0, "A")
	assert.True(t, errors.Is(err, ErrNotOwned))

	_, err = s.PlaceCard(ctx, "missing", 0, "A")
	assert.True(t, errors.Is(err, ErrDeckNotFound))
}

func TestMoveCard_Swaps(t *testing.T) {
	s, d := ownedDeck(t, 4)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")
	_, _ = s.PlaceCard(ctx, d.ID, 1, "B")

	require.NoError(t, s.MoveCard(ctx, d.ID, 0, 1))
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, "B", deck.Slots[0])
	assert.Equal(t, "A", deck.Slots[1])

	// Applying it again with swapped arguments restores the original order.
	require.NoError(t, s.MoveCard(ctx, d.ID, 1, 0))
	deck, _ = s.Deck(d.ID)
	assert.Equal(t, []string{"A", "B", "", ""}, deck.Slots)
}

func TestMoveCard_ToEmptyAndErrors(t *testing.T) {
	s, d := ownedDeck(t, 3)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")

	require.NoError(t, s.MoveCard(ctx, d.ID, 0, 2))
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, []string{"", "", "A"}, deck.Slots)

	assert.True(t, errors.Is(s.MoveCard(ctx, d.ID, 0, 1), ErrEmptySlot))
	assert.True(t, errors.Is(s.MoveCard(ctx, d.ID, 2, 3), ErrSlotOutOfRange))

	version := s.Version()
	require.NoError(t, s.MoveCard(ctx, d.ID, 2, 2))
	assert.Equal(t, version, s.Version(), "same-slot move is a no-op")
}

func TestTransferCard_AcrossDecks(t *testing.T) {
	s, d1 := ownedDeck(t, 3)
	d2, _ := s.CreateDeck(ctx, "Other", 3)
	_, _ = s.PlaceCard(ctx, d1.ID, 0, "A")
	_, _ = s.PlaceCard(ctx, d2.ID, 1, "B")

	evicted, err := s.TransferCard(ctx, d1.ID, 0, d2.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", evicted)

	src, _ := s.Deck(d1.ID)
	dst, _ := s.Deck(d2.ID)
	assert.Equal(t, "", src.Slots[0])
	assert.Equal(t, "A", dst.Slots[1])
}

func TestTransferCard_FailureLeavesBothDecks(t *testing.T) {
	s, d1 := ownedDeck(t, 3)
	d2, _ := s.CreateDeck(ctx, "Small", 1)
	_, _ = s.PlaceCard(ctx, d1.ID, 0, "A")
	before := s.Snapshot()

	_, err := s.TransferCard(ctx, d1.ID, 0, d2.ID, 4)
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))
	assert.Equal(t, before, s.Snapshot())
}

func TestTransferCard_SameDeckSwaps(t *testing.T) {
	s, d := ownedDeck(t, 2)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")
	_, _ = s.PlaceCard(ctx, d.ID, 1, "B")

	_, err := s.TransferCard(ctx, d.ID, 0, d.ID, 1)
	require.NoError(t, err)
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, []string{"B", "A"}, deck.Slots)
}

func TestRemoveCard_KeepsCollection(t *testing.T) {
	s, d := ownedDeck(t, 4)
	for i, id := range []string{"A", "B", "C", "D"} {
		_, err := s.PlaceCard(ctx, d.ID, i, id)
		require.NoError(t, err)
	}
	quantities := s.Snapshot().Collection

	for slot := 0; slot < 4; slot++ {
		require.NoError(t, s.RemoveCard(ctx, d.ID, slot))
		deck, _ := s.Deck(d.ID)
		assert.Equal(t, "", deck.Slots[slot])
		assert.Equal(t, quantities, s.Snapshot().Collection)
	}
}

func TestSetCover(t *testing.T) {
	s, d := ownedDeck(t, 3)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")

	assert.True(t, errors.Is(s.SetCover(ctx, d.ID, "B"), ErrInvalidCover))

	require.NoError(t, s.SetCover(ctx, d.ID, "A"))
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, "A", deck.CoverCardID)

	// Emptying the only slot holding the cover clears it.
	require.NoError(t, s.RemoveCard(ctx, d.ID, 0))
	deck, _ = s.Deck(d.ID)
	assert.Equal(t, "", deck.CoverCardID)
}

func TestSetCover_SurvivesMove(t *testing.T) {
	s, d := ownedDeck(t, 3)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")
	require.NoError(t, s.SetCover(ctx, d.ID, "A"))

	require.NoError(t, s.MoveCard(ctx, d.ID, 0, 2))
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, "A", deck.CoverCardID)
}

func TestRenameAndDeleteDeck(t *testing.T) {
	s, d := ownedDeck(t, 2)
	_, _ = s.PlaceCard(ctx, d.ID, 0, "A")

	require.NoError(t, s.RenameDeck(ctx, d.ID, "Renamed"))
	deck, _ := s.Deck(d.ID)
	assert.Equal(t, "Renamed", deck.Name)
	assert.True(t, errors.Is(s.RenameDeck(ctx, d.ID, ""), ErrInvalidDeck))

	require.NoError(t, s.DeleteDeck(ctx, d.ID))
	_, err := s.Deck(d.ID)
	assert.True(t, errors.Is(err, ErrDeckNotFound))
	assert.Equal(t, 1, s.QuantityOf("A"), "deleting a deck does not touch the collection")
	assert.True(t, errors.Is(s.DeleteDeck(ctx, d.ID), ErrDeckNotFound))
}

func TestMutationsUpdateTimestamp(t *testing.T) {
	now := testNow
	s, _ := newTestSession(t, WithClock(func() time.Time { return now }))
	require.NoError(t, s.Acquire(ctx, "A", 1))
	d, _ := s.CreateDeck(ctx, "Deck", 2)

	now = now.Add(time.Hour)
	_, err := s.PlaceCard(ctx, d.ID, 0, "A")
	require.NoError(t, err)

	deck, _ := s.Deck(d.ID)
	assert.Equal(t, testNow, deck.CreatedAt)
	assert.Equal(t, now, deck.UpdatedAt)
}

func TestDecks_CreationOrder(t *testing.T) {
	s, _ := newTestSession(t)
	for _, name := range []string{"first", "second", "third"} {
		_, err := s.CreateDeck(ctx, name, 1)
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteDeck(ctx, "deck-2"))

	decks := s.Decks()
	require.Len(t, decks, 2)
	assert.Equal(t, "first", decks[0].Name)
	assert.Equal(t, "third", decks[1].Name)
}
