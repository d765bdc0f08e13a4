package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"trivia-bot/internal/models"
)

func TestPeriodBounds(t *testing.T) {
	loc := madrid(t)
	cases := []struct {
		name   string
		now    time.Time
		period models.Period
		start  time.Time
		end    time.Time
	}{
		{
			name:   "day",
			now:    time.Date(2024, 3, 15, 10, 0, 0, 0, loc),
			period: models.PeriodDay,
			start:  time.Date(2024, 3, 15, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 16, 0, 0, 0, 0, loc),
		},
		{
			name:   "day from utc instant",
			now:    time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC),
			period: models.PeriodDay,
			start:  time.Date(2024, 3, 16, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 17, 0, 0, 0, 0, loc),
		},
		{
			name:   "week on sunday",
			now:    time.Date(2024, 3, 17, 23, 30, 0, 0, loc),
			period: models.PeriodWeek,
			start:  time.Date(2024, 3, 11, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 18, 0, 0, 0, 0, loc),
		},
		{
			name:   "week on monday midnight",
			now:    time.Date(2024, 3, 11, 0, 0, 0, 0, loc),
			period: models.PeriodWeek,
			start:  time.Date(2024, 3, 11, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 18, 0, 0, 0, 0, loc),
		},
		{
			name:   "month",
			now:    time.Date(2024, 2, 29, 12, 0, 0, 0, loc),
			period: models.PeriodMonth,
			start:  time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
		},
		{
			name:   "december rolls into january",
			now:    time.Date(2023, 12, 20, 18, 0, 0, 0, loc),
			period: models.PeriodMonth,
			start:  time.Date(2023, 12, 1, 0, 0, 0, 0, loc),
			end:    time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start, end := PeriodBounds(tc.now, loc, tc.period)
			if !start.Equal(tc.start) || !end.Equal(tc.end) {
				t.Fatalf("unexpected bounds: got=[%s, %s) want=[%s, %s)", start, end, tc.start, tc.end)
			}
		})
	}
}

func TestPeriodBoundsAcrossDST(t *testing.T) {
	loc := madrid(t)
	start, end := PeriodBounds(time.Date(2024, 3, 31, 12, 0, 0, 0, loc), loc, models.PeriodDay)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("unexpected DST day length: got=%s want=23h", got)
	}
}

func TestParsePeriod(t *testing.T) {
	cases := map[string]models.Period{
		"":       models.PeriodDay,
		"dia":    models.PeriodDay,
		"DÍA":    models.PeriodDay,
		"semana": models.PeriodWeek,
		"week":   models.PeriodWeek,
		"Mes":    models.PeriodMonth,
	}
	for in, want := range cases {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Fatalf("unexpected period for %q: got=%s err=%v want=%s", in, got, err, want)
		}
	}
	if _, err := ParsePeriod("año"); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrUnknownPeriod)
	}
}

func TestRankOrdersByHitsThenFaults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	dani := models.Participant{ID: 4, Name: "Dani"}

	// Yesterday's event only counts for the week and month.
	h.clock.set(time.Date(2024, 3, 14, 12, 0, 0, 0, h.loc))
	old := h.broadcast(t, testChat)
	h.answer(t, old, bruno, true)

	h.clock.set(time.Date(2024, 3, 15, 10, 0, 0, 0, h.loc))
	if err := h.svc.TouchUser(ctx, testChat, carla); err != nil {
		t.Fatalf("TouchUser failed: %v", err)
	}
	first := h.broadcast(t, testChat)
	h.answer(t, first, ana, true)
	h.answer(t, first, bruno, true)
	h.answer(t, first, dani, true)

	h.clock.set(time.Date(2024, 3, 15, 12, 0, 0, 0, h.loc))
	second := h.broadcast(t, testChat)
	h.answer(t, second, ana, true)
	h.answer(t, second, bruno, false)

	ranking, err := h.svc.Rank(ctx, testChat, models.PeriodDay)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	want := []models.RankRow{
		{UserID: ana.ID, Name: "Ana", Hits: 2, Faults: 0},
		{UserID: dani.ID, Name: "Dani", Hits: 1, Faults: 0},
		{UserID: bruno.ID, Name: "Bruno", Hits: 1, Faults: 1},
	}
	if len(ranking.Rows) != len(want) {
		t.Fatalf("unexpected rows: got=%+v want=%+v", ranking.Rows, want)
	}
	for i := range want {
		if ranking.Rows[i] != want[i] {
			t.Fatalf("unexpected row %d: got=%+v want=%+v", i, ranking.Rows[i], want[i])
		}
	}
	if len(ranking.Roster) != 4 {
		t.Fatalf("unexpected roster size: got=%d want=4", len(ranking.Roster))
	}
	if len(ranking.NonParticipants) != 1 || ranking.NonParticipants[0].UserID != carla.ID {
		t.Fatalf("unexpected non-participants: %+v", ranking.NonParticipants)
	}

	week, err := h.svc.Rank(ctx, testChat, models.PeriodWeek)
	if err != nil {
		t.Fatalf("Rank week failed: %v", err)
	}
	wantWeek := []models.RankRow{
		{UserID: ana.ID, Name: "Ana", Hits: 2, Faults: 0},
		{UserID: bruno.ID, Name: "Bruno", Hits: 2, Faults: 1},
		{UserID: dani.ID, Name: "Dani", Hits: 1, Faults: 0},
	}
	if len(week.Rows) != len(wantWeek) {
		t.Fatalf("unexpected week rows: got=%+v want=%+v", week.Rows, wantWeek)
	}
	for i := range wantWeek {
		if week.Rows[i] != wantWeek[i] {
			t.Fatalf("unexpected week row %d: got=%+v want=%+v", i, week.Rows[i], wantWeek[i])
		}
	}
}

func TestRankWithoutEventsIsEmpty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.svc.TouchUser(ctx, testChat, ana); err != nil {
		t.Fatalf("TouchUser failed: %v", err)
	}

	ranking, err := h.svc.Rank(ctx, testChat, models.PeriodMonth)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if !ranking.Empty() || len(ranking.NonParticipants) != 0 {
		t.Fatalf("expected empty ranking: %+v", ranking)
	}
}

func TestRosterExcludesStaleUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.clock.set(time.Date(2024, 2, 1, 10, 0, 0, 0, h.loc))
	if err := h.svc.TouchUser(ctx, testChat, carla); err != nil {
		t.Fatalf("TouchUser failed: %v", err)
	}

	h.clock.set(time.Date(2024, 3, 15, 10, 0, 0, 0, h.loc))
	event := h.broadcast(t, testChat)
	h.answer(t, event, ana, true)

	ranking, err := h.svc.Rank(ctx, testChat, models.PeriodDay)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranking.Roster) != 1 || ranking.Roster[0].UserID != ana.ID {
		t.Fatalf("stale user kept in roster: %+v", ranking.Roster)
	}
}

type memoryCache struct {
	rankings map[string]*models.Ranking
	streaks  map[int64][]models.StreakEntry
	deletes  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		rankings: make(map[string]*models.Ranking),
		streaks:  make(map[int64][]models.StreakEntry),
	}
}

func rankingCacheKey(chatID int64, period models.Period, start time.Time) string {
	return fmt.Sprintf("%d:%s:%d", chatID, period, start.Unix())
}

func (m *memoryCache) SetRanking(ctx context.Context, ranking *models.Ranking) error {
	m.rankings[rankingCacheKey(ranking.ChatID, ranking.Period, ranking.Start)] = ranking
	return nil
}

func (m *memoryCache) GetRanking(ctx context.Context, chatID int64, period models.Period, start time.Time) (*models.Ranking, error) {
	return m.rankings[rankingCacheKey(chatID, period, start)], nil
}

func (m *memoryCache) DeleteRankings(ctx context.Context, chatID int64) error {
	m.deletes++
	prefix := fmt.Sprintf("%d:", chatID)
	for key := range m.rankings {
		if strings.HasPrefix(key, prefix) {
			delete(m.rankings, key)
		}
	}
	return nil
}

func (m *memoryCache) SetStreaks(ctx context.Context, chatID int64, entries []models.StreakEntry) error {
	m.streaks[chatID] = entries
	return nil
}

func (m *memoryCache) GetStreaks(ctx context.Context, chatID int64) ([]models.StreakEntry, error) {
	return m.streaks[chatID], nil
}

func TestCachedRankingSeesNewAnswers(t *testing.T) {
	h := newHarness(t)
	cache := newMemoryCache()
	h.svc.cache = cache
	ctx := context.Background()

	event := h.broadcast(t, testChat)
	h.answer(t, event, ana, true)

	first, err := h.svc.CachedRanking(ctx, testChat, models.PeriodDay)
	if err != nil {
		t.Fatalf("CachedRanking failed: %v", err)
	}
	if len(first.Rows) != 1 || len(cache.rankings) != 1 {
		t.Fatalf("unexpected first ranking: rows=%d cached=%d", len(first.Rows), len(cache.rankings))
	}

	h.answer(t, event, bruno, false)
	second, err := h.svc.CachedRanking(ctx, testChat, models.PeriodDay)
	if err != nil {
		t.Fatalf("CachedRanking failed: %v", err)
	}
	if len(second.Rows) != 2 || second.Rows[1].UserID != bruno.ID {
		t.Fatalf("ranking misses the latest answer: got=%+v", second.Rows)
	}

	if _, err := h.svc.CloseEvent(ctx, event.ID); err != nil {
		t.Fatalf("CloseEvent failed: %v", err)
	}
	if len(cache.rankings) != 0 {
		t.Fatalf("close-out left cached rankings: got=%d want=0", len(cache.rankings))
	}
	if len(cache.streaks[testChat]) != 2 {
		t.Fatalf("unexpected cached streaks: %+v", cache.streaks[testChat])
	}
}

func TestDuplicateAnswerKeepsCachedRanking(t *testing.T) {
	h := newHarness(t)
	cache := newMemoryCache()
	h.svc.cache = cache

	event := h.broadcast(t, testChat)
	h.answer(t, event, ana, true)
	deletes := cache.deletes

	if got := h.answer(t, event, ana, false); got != models.OutcomeDuplicate {
		t.Fatalf("unexpected outcome: got=%v want=%v", got, models.OutcomeDuplicate)
	}
	if cache.deletes != deletes {
		t.Fatalf("duplicate answer invalidated the cache: got=%d want=%d", cache.deletes, deletes)
	}
}
