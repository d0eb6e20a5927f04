package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestTracker(t *testing.T, ttl time.Duration) (*ChallengeTracker, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewChallengeTracker(client, ttl), server
}

func TestGuessMatchFirstTry(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, 5*time.Minute)

	challengeID, err := tracker.Begin(ctx, "student-1")
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	result, err := tracker.Guess(ctx, challengeID, "student-1", true)
	if err != nil {
		t.Fatalf("guess error: %v", err)
	}
	if result.Outcome != GuessMatch {
		t.Fatalf("expected match, got %d", result.Outcome)
	}

	// The challenge is consumed; it cannot be replayed.
	if _, err := tracker.Guess(ctx, challengeID, "student-1", true); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected consumed challenge to be gone, got %v", err)
	}
}

func TestThreeWrongGuessesLock(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, 5*time.Minute)

	challengeID, err := tracker.Begin(ctx, "student-1")
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	result, err := tracker.Guess(ctx, challengeID, "student-1", false)
	if err != nil || result.Outcome != GuessRetry || result.AttemptsRemaining != 2 {
		t.Fatalf("guess 1: expected retry with 2 remaining, got %+v err=%v", result, err)
	}
	result, err = tracker.Guess(ctx, challengeID, "student-1", false)
	if err != nil || result.Outcome != GuessRetry || result.AttemptsRemaining != 1 {
		t.Fatalf("guess 2: expected retry with 1 remaining, got %+v err=%v", result, err)
	}
	result, err = tracker.Guess(ctx, challengeID, "student-1", false)
	if err != nil || result.Outcome != GuessLocked {
		t.Fatalf("guess 3: expected locked, got %+v err=%v", result, err)
	}

	// A locked challenge rejects even the correct answer.
	result, err = tracker.Guess(ctx, challengeID, "student-1", true)
	if err != nil || result.Outcome != GuessLocked {
		t.Fatalf("guess 4: expected still locked, got %+v err=%v", result, err)
	}
}

func TestMatchBeforeLockoutSucceeds(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, 5*time.Minute)

	challengeID, err := tracker.Begin(ctx, "student-1")
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	for i := 0; i < MaxGuessAttempts-1; i++ {
		if _, err := tracker.Guess(ctx, challengeID, "student-1", false); err != nil {
			t.Fatalf("guess error: %v", err)
		}
	}
	result, err := tracker.Guess(ctx, challengeID, "student-1", true)
	if err != nil || result.Outcome != GuessMatch {
		t.Fatalf("expected match on last remaining attempt, got %+v err=%v", result, err)
	}
}

func TestGuessUnknownOrForeignChallenge(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, 5*time.Minute)

	if _, err := tracker.Guess(ctx, "no-such-challenge", "student-1", true); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}

	challengeID, err := tracker.Begin(ctx, "student-1")
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}
	// A challenge bound to one student is unusable for another.
	if _, err := tracker.Guess(ctx, challengeID, "student-2", true); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound for foreign student, got %v", err)
	}
}

func TestChallengeExpiresByTTL(t *testing.T) {
	ctx := context.Background()
	tracker, server := newTestTracker(t, time.Minute)

	challengeID, err := tracker.Begin(ctx, "student-1")
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := tracker.Guess(ctx, challengeID, "student-1", true); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected expired challenge to be gone, got %v", err)
	}
}
