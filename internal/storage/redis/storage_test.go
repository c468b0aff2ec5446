package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/snookercounter/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestUserTTL = time.Hour
	cfg.MatchTTL = 2 * time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func testMatch(id model.MatchID, owner model.UserID, number int, created time.Time) *model.Match {
	return &model.Match{
		ID:      id,
		Number:  number,
		OwnerID: owner,
		Players: []model.Player{
			{ID: "p1", Name: "Alice", Score: 12, CurrentBreak: 4, HighestBreak: 8},
			{ID: "p3", Name: "Carol", Score: 7},
		},
		CurrentPlayerIndex: 1,
		FrameNumber:        3,
		FoulPolicy:         model.FoulPolicySplit,
		NextPlayerSeq:      3,
		Version:            9,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
		IsGuest:     false,
		CreatedAt:   time.Now(),
	}

	err := s.storage.SaveUser(s.ctx, user)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(user.ID, retrieved.ID)
	s.Equal(user.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestGuestUserTTL() {
	guest := &model.User{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	registered := &model.User{ID: "user-1", DisplayName: "Alice"}

	s.Require().NoError(s.storage.SaveUser(s.ctx, guest))
	s.Require().NoError(s.storage.SaveUser(s.ctx, registered))

	// Check that guest has TTL and registered doesn't
	guestTTL := s.mini.TTL(userKey(guest.ID))
	registeredTTL := s.mini.TTL(userKey(registered.ID))

	s.True(guestTTL > 0, "Guest user should have TTL")
	s.Equal(time.Duration(0), registeredTTL, "Registered user should not have TTL")

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetUser(s.ctx, guest.ID)
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.storage.GetUser(s.ctx, registered.ID)
	s.NoError(err)
}

// Registered user tests

func (s *StorageSuite) TestSaveAndGetRegisteredUser() {
	ru := &model.RegisteredUser{
		UserID:       "user-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
	}

	err := s.storage.SaveRegisteredUser(s.ctx, ru)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegisteredUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(ru.Username, retrieved.Username)
	s.Equal(ru.PasswordHash, retrieved.PasswordHash)
}

func (s *StorageSuite) TestGetRegisteredUserByUsername() {
	ru := &model.RegisteredUser{UserID: "user-1", Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.storage.SaveRegisteredUser(s.ctx, ru))

	retrieved, err := s.storage.GetRegisteredUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), retrieved.UserID)
}

func (s *StorageSuite) TestGetRegisteredUserByUsernameNotFound() {
	_, err := s.storage.GetRegisteredUserByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Match tests

func (s *StorageSuite) TestSaveAndGetMatchRoundTrips() {
	created := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	match := testMatch("match-1", "user-1", 4821, created)

	err := s.storage.SaveMatch(s.ctx, match)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(match, retrieved)
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestMatchTTL() {
	match := testMatch("match-1", "user-1", 4821, time.Now())
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))

	s.True(s.mini.TTL(matchKey(match.ID)) > 0, "Match should have TTL")
	s.True(s.mini.TTL(matchNumberIndexKey(match.Number)) > 0, "Number index should have TTL")
	s.True(s.mini.TTL(ownerMatchesIndexKey(match.OwnerID)) > 0, "Owner index should have TTL")
}

func (s *StorageSuite) TestMatchNumberExists() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m1", "user-1", 4821, time.Now())))

	exists, err := s.storage.MatchNumberExists(s.ctx, 4821)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.MatchNumberExists(s.ctx, 1000)
	s.Require().NoError(err)
	s.False(exists)

	match, err := s.storage.GetMatchByNumber(s.ctx, 4821)
	s.Require().NoError(err)
	s.Equal(model.MatchID("m1"), match.ID)

	_, err = s.storage.GetMatchByNumber(s.ctx, 1000)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestListMatchesForOwner() {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m1", "user-1", 1001, base)))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m2", "user-2", 1002, base.Add(time.Minute))))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m3", "user-1", 1003, base.Add(2*time.Minute))))

	matches, err := s.storage.ListMatchesForOwner(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal(model.MatchID("m3"), matches[0].ID)
	s.Equal(model.MatchID("m1"), matches[1].ID)
}

func (s *StorageSuite) TestListMatchesForOwnerEmpty() {
	matches, err := s.storage.ListMatchesForOwner(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *StorageSuite) TestListMatchesSkipsExpiredSnapshots() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m1", "user-1", 1001, time.Now())))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, testMatch("m2", "user-1", 1002, time.Now())))

	// Simulate the snapshot expiring ahead of its index entry
	s.mini.Del(matchKey("m1"))

	matches, err := s.storage.ListMatchesForOwner(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(model.MatchID("m2"), matches[0].ID)
}

func (s *StorageSuite) TestDeleteMatch() {
	match := testMatch("match-1", "user-1", 4821, time.Now())
	s.Require().NoError(s.storage.SaveMatch(s.ctx, match))
	s.Require().NoError(s.storage.AppendFrameSummary(s.ctx, &model.FrameSummary{MatchID: "match-1", FrameNumber: 1}))

	err := s.storage.DeleteMatch(s.ctx, "match-1")
	s.Require().NoError(err)

	_, err = s.storage.GetMatch(s.ctx, "match-1")
	s.ErrorIs(err, model.ErrMatchNotFound)

	exists, err := s.storage.MatchNumberExists(s.ctx, 4821)
	s.Require().NoError(err)
	s.False(exists)

	s.False(s.mini.Exists(historyKey("match-1")))

	matches, err := s.storage.ListMatchesForOwner(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *StorageSuite) TestDeleteMissingMatchIsNoop() {
	s.NoError(s.storage.DeleteMatch(s.ctx, "nonexistent"))
}

// Frame history tests

func (s *StorageSuite) TestFrameSummaries() {
	completed := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	for frame := 1; frame <= 3; frame++ {
		err := s.storage.AppendFrameSummary(s.ctx, &model.FrameSummary{
			MatchID:     "match-1",
			FrameNumber: frame,
			Results: []model.PlayerResult{
				{PlayerID: "p1", Name: "Alice", Score: frame * 10, HighestBreak: frame},
				{PlayerID: "p2", Name: "Bob", Score: 5},
			},
			Leader:      "p1",
			CompletedAt: completed,
		})
		s.Require().NoError(err)
	}

	summaries, err := s.storage.GetFrameSummaries(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Require().Len(summaries, 3)
	for i, summary := range summaries {
		s.Equal(i+1, summary.FrameNumber)
		s.Equal((i+1)*10, summary.Results[0].Score)
		s.Equal(model.PlayerID("p1"), summary.Leader)
		s.True(completed.Equal(summary.CompletedAt))
	}
}

func (s *StorageSuite) TestFrameSummariesEmpty() {
	summaries, err := s.storage.GetFrameSummaries(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Empty(summaries)
}

func (s *StorageSuite) TestSaveMatchRejectsTakenNumber() {
	first := testMatch("m1", "user-1", 4821, time.Now())
	s.Require().NoError(s.storage.SaveMatch(s.ctx, first))

	err := s.storage.SaveMatch(s.ctx, testMatch("m2", "user-2", 4821, time.Now()))
	s.ErrorIs(err, model.ErrMatchNumberTaken)

	// The holder keeps its number and can still be updated
	byNumber, err := s.storage.GetMatchByNumber(s.ctx, 4821)
	s.Require().NoError(err)
	s.Equal(model.MatchID("m1"), byNumber.ID)
	first.Version = 2
	s.Require().NoError(s.storage.SaveMatch(s.ctx, first))

	_, err = s.storage.GetMatch(s.ctx, "m2")
	s.ErrorIs(err, model.ErrMatchNotFound)

	// Deleting the holder frees the number
	s.Require().NoError(s.storage.DeleteMatch(s.ctx, "m1"))
	s.NoError(s.storage.SaveMatch(s.ctx, testMatch("m2", "user-2", 4821, time.Now())))
}
