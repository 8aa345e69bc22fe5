package snapshot

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"mext-feed/internal/domain/entity"
)

func item(id, date string) entity.NewsItem {
	return entity.NewsItem{ID: id, Date: date}
}

func ids(items []entity.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestBuild_SortsByDateStringDescending(t *testing.T) {
	in := []entity.NewsItem{
		item("a", "2024-03-01"),
		item("b", "09 Mar 2024"),
		item("c", "2024-03-10"),
		item("d", ""),
		item("e", "2024-03-10"),
	}

	snap := Build(in, 10, time.Now())

	// "09 Mar 2024" sorts below "2024-03-01" although it is a later day.
	// Ties keep input order; the empty date sorts last.
	want := []string{"c", "e", "a", "b", "d"}
	if diff := cmp.Diff(want, ids(snap.Items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Truncates(t *testing.T) {
	in := make([]entity.NewsItem, 0, 20)
	for i := range 20 {
		in = append(in, item(fmt.Sprintf("id%02d", i), fmt.Sprintf("2024-01-%02d", i+1)))
	}

	snap := Build(in, 5, time.Now())

	assert.Len(t, snap.Items, 5)
	assert.Equal(t, []string{"id19", "id18", "id17", "id16", "id15"}, ids(snap.Items))
}

func TestBuild_DefaultMax(t *testing.T) {
	in := make([]entity.NewsItem, DefaultMaxItems+10)
	snap := Build(in, 0, time.Now())
	assert.Len(t, snap.Items, DefaultMaxItems)
}

func TestBuild_DoesNotModifyInput(t *testing.T) {
	in := []entity.NewsItem{item("old", "2023"), item("new", "2024")}
	_ = Build(in, 10, time.Now())
	assert.Equal(t, "old", in[0].ID)
}

func TestBuild_EmptyItemsNotNil(t *testing.T) {
	snap := Build(nil, 10, time.Now())
	assert.NotNil(t, snap.Items)
	assert.Empty(t, snap.Items)
}

func TestBuild_GeneratedAtUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	now := time.Date(2024, 3, 10, 9, 30, 15, 123456789, jst)

	snap := Build(nil, 10, now)

	assert.Equal(t, time.UTC, snap.GeneratedAt.Location())
	assert.True(t, snap.GeneratedAt.Equal(time.Date(2024, 3, 10, 0, 30, 15, 0, time.UTC)), "got %v", snap.GeneratedAt)
}
