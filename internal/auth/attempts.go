package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MaxGuessAttempts bounds wrong visual-password guesses per challenge.
const MaxGuessAttempts = 3

// ErrChallengeNotFound covers absent, expired, and mismatched challenges
// alike; the client is told only that the challenge is no longer usable.
var ErrChallengeNotFound = errors.New("login challenge not found")

// GuessOutcome is the tracker's verdict for one submitted selection.
type GuessOutcome int

const (
	// GuessMatch: the selection was correct and the challenge is consumed.
	GuessMatch GuessOutcome = iota
	// GuessRetry: wrong selection, attempts remain.
	GuessRetry
	// GuessLocked: all attempts are used up; no further input is accepted,
	// correct or not.
	GuessLocked
)

// GuessResult reports the outcome and, for retries, how many attempts remain.
type GuessResult struct {
	Outcome           GuessOutcome
	AttemptsRemaining int
}

// ChallengeTracker counts wrong visual-password guesses server-side, keyed by
// an opaque challenge id bound to one student. State lives in Redis with a
// short expiry so reloading the picker cannot reset the counter, and
// abandoned challenges are garbage-collected by TTL.
type ChallengeTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChallengeTracker(client *redis.Client, ttl time.Duration) *ChallengeTracker {
	return &ChallengeTracker{client: client, ttl: ttl}
}

func challengeKey(challengeID string) string {
	return "login_challenge:" + challengeID
}

// Begin creates a fresh challenge for a student and returns its opaque id.
func (t *ChallengeTracker) Begin(ctx context.Context, studentID string) (string, error) {
	challengeID := uuid.NewString()
	key := challengeKey(challengeID)

	if err := t.client.HSet(ctx, key, "student_id", studentID, "attempts", 0).Err(); err != nil {
		return "", err
	}
	if err := t.client.Expire(ctx, key, t.ttl).Err(); err != nil {
		return "", err
	}
	return challengeID, nil
}

// Guess records one selection against a challenge. correct is the matcher's
// verdict for the submitted option. A matched challenge is deleted; a locked
// challenge is kept until its TTL so repeat submissions stay locked.
func (t *ChallengeTracker) Guess(ctx context.Context, challengeID, studentID string, correct bool) (GuessResult, error) {
	key := challengeKey(challengeID)

	fields, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return GuessResult{}, err
	}
	if len(fields) == 0 || fields["student_id"] != studentID {
		return GuessResult{}, ErrChallengeNotFound
	}

	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return GuessResult{}, ErrChallengeNotFound
	}
	if attempts >= MaxGuessAttempts {
		return GuessResult{Outcome: GuessLocked}, nil
	}

	if correct {
		if err := t.client.Del(ctx, key).Err(); err != nil {
			return GuessResult{}, err
		}
		return GuessResult{Outcome: GuessMatch}, nil
	}

	count, err := t.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return GuessResult{}, err
	}
	if count >= MaxGuessAttempts {
		return GuessResult{Outcome: GuessLocked}, nil
	}
	return GuessResult{Outcome: GuessRetry, AttemptsRemaining: MaxGuessAttempts - int(count)}, nil
}
