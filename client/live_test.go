package tickvault_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tickvault "github.com/tickvault/go-tickvault-client/client"
	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

func requireLiveEndpoint(t *testing.T) (url, user, pass string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live TickVault test in short mode")
	}
	if os.Getenv("TICKVAULT_LIVE_TEST") == "" {
		t.Skip("set TICKVAULT_LIVE_TEST=1 to enable live endpoint tests")
	}
	url = os.Getenv("TICKVAULT_LIVE_URL")
	if url == "" {
		t.Skip("TICKVAULT_LIVE_URL not set")
	}
	return url, os.Getenv("TICKVAULT_USERNAME"), os.Getenv("TICKVAULT_PASSWORD")
}

func TestLiveQueryAgainstEndpoint(t *testing.T) {
	url, user, pass := requireLiveEndpoint(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := tickvault.New(
		tickvault.WithBaseURL(url),
		tickvault.WithAuth(user, pass),
		tickvault.WithTimeout(30*time.Second),
	)
	if err != nil {
		t.Fatalf("New client: %v", err)
	}

	q := tickvault.Query{
		System:     os.Getenv("TICKVAULT_SYSTEM"),
		Dataset:    os.Getenv("TICKVAULT_DATASET"),
		Source:     os.Getenv("TICKVAULT_SOURCE"),
		Tickers:    []string{os.Getenv("TICKVAULT_TICKER")},
		Start:      20210301093000,
		End:        20210301093500,
		Limit:      10,
		Predicates: predicate.Raw("line_type = QA,QB"),
	}
	records, err := client.Query().Run(ctx, q)
	if err != nil && !errors.Is(err, tickvault.ErrEmptyResponse) {
		t.Fatalf("Run: %v", err)
	}
	t.Logf("live query returned %d records", len(records))
}
