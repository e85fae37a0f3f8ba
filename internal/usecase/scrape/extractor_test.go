package scrape_test

import (
	"context"
	"testing"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/usecase/scrape"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(t *testing.T) entity.DateWindow {
	t.Helper()
	window, err := entity.NewDateWindow(1, fixedNow)
	require.NoError(t, err)
	return window
}

func newExtractor(t *testing.T, driver *fakeDriver, images scrape.ImageDownloader) *scrape.Extractor {
	return scrape.NewExtractor(driver, testSelectors(), testWindow(t), "climate",
		images, "/tmp/images", "https://apnews.com")
}

func TestExtractor_Extract(t *testing.T) {
	inWindow := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		card   *fakeNode
		images *stubDownloader
		want   entity.ArticleRecord
	}{
		{
			name:   "all fields present",
			card:   card(inWindow, "Climate talks stall", "Leaders pledge $100 billion for climate aid", "https://cdn.example/a.jpg"),
			images: &stubDownloader{},
			want: entity.ArticleRecord{
				Title:           "Climate talks stall",
				Date:            inWindow,
				Description:     "Leaders pledge $100 billion for climate aid",
				ImagePath:       "/tmp/images/image_1.jpg",
				PhraseCount:     2,
				HasMoneyMention: true,
			},
		},
		{
			name:   "missing description",
			card:   card(inWindow, "Climate report", "", "https://cdn.example/a.jpg"),
			images: &stubDownloader{},
			want: entity.ArticleRecord{
				Title:       "Climate report",
				Date:        inWindow,
				Description: entity.NotAvailable,
				ImagePath:   "/tmp/images/image_1.jpg",
				PhraseCount: 1,
			},
		},
		{
			name:   "missing title and image",
			card:   card(inWindow, "", "Costs reach 20 dollars", ""),
			images: &stubDownloader{},
			want: entity.ArticleRecord{
				Title:           entity.NotAvailable,
				Date:            inWindow,
				Description:     "Costs reach 20 dollars",
				ImagePath:       entity.NotAvailable,
				HasMoneyMention: true,
			},
		},
		{
			name:   "image download fails",
			card:   card(inWindow, "Title", "Description", "https://cdn.example/a.jpg"),
			images: &stubDownloader{err: errFake},
			want: entity.ArticleRecord{
				Title:       "Title",
				Date:        inWindow,
				Description: "Description",
				ImagePath:   entity.NotAvailable,
			},
		},
		{
			name:   "blank title text",
			card:   card(inWindow, "   ", "Description", ""),
			images: &stubDownloader{},
			want: entity.ArticleRecord{
				Title:       entity.NotAvailable,
				Date:        inWindow,
				Description: "Description",
				ImagePath:   entity.NotAvailable,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			driver := &fakeDriver{}
			e := newExtractor(t, driver, tt.images)

			// Act
			got, ok := e.Extract(context.Background(), tt.card)

			// Assert
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractor_Extract_NotAdmitted(t *testing.T) {
	tests := []struct {
		name string
		card *fakeNode
	}{
		{name: "before window", card: card(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC), "Title", "Desc", "https://cdn.example/a.jpg")},
		{name: "after window", card: card(time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC), "Title", "Desc", "https://cdn.example/a.jpg")},
		{name: "no timestamp", card: card(time.Time{}, "Title", "Desc", "https://cdn.example/a.jpg")},
		{name: "unparsable timestamp", card: &fakeNode{children: map[string][]*fakeNode{
			".ts": {{attrs: map[string]string{"data-timestamp": "yesterday"}}},
		}}},
		{name: "timestamp without attribute", card: &fakeNode{children: map[string][]*fakeNode{
			".ts": {{attrs: map[string]string{}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			images := &stubDownloader{}
			e := newExtractor(t, &fakeDriver{}, images)

			// Act
			_, ok := e.Extract(context.Background(), tt.card)

			// Assert
			assert.False(t, ok)
			assert.Zero(t, images.calls, "no image may be downloaded for a skipped card")
		})
	}
}

func TestExtractor_Extract_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		published time.Time
	}{
		{name: "first day of window", published: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{name: "today late evening", published: time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t, &fakeDriver{}, nil)

			got, ok := e.Extract(context.Background(), card(tt.published, "t", "d", ""))

			require.True(t, ok)
			assert.True(t, got.Date.Equal(tt.published))
			assert.Equal(t, entity.NotAvailable, got.ImagePath)
		})
	}
}

func TestExtractor_Extract_ImageSource(t *testing.T) {
	inWindow := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("relative src resolved against site", func(t *testing.T) {
		images := &stubDownloader{}
		e := newExtractor(t, &fakeDriver{}, images)

		_, ok := e.Extract(context.Background(), card(inWindow, "t", "d", "/images/a.jpg"))

		require.True(t, ok)
		assert.Equal(t, []string{"https://apnews.com/images/a.jpg"}, images.urls)
	})

	t.Run("data-src used when src missing", func(t *testing.T) {
		images := &stubDownloader{}
		e := newExtractor(t, &fakeDriver{}, images)
		c := card(inWindow, "t", "d", "")
		c.children[".img"] = []*fakeNode{{attrs: map[string]string{"data-src": "https://cdn.example/lazy.png"}}}

		got, ok := e.Extract(context.Background(), c)

		require.True(t, ok)
		assert.Equal(t, []string{"https://cdn.example/lazy.png"}, images.urls)
		assert.Equal(t, "/tmp/images/image_1.jpg", got.ImagePath)
	})
}
