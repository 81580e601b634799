package catalog

import (
	"strings"
	"testing"
)

func TestLookupKnownDigest(t *testing.T) {
	identity := Lookup("09f0d105f476b00efa5303a3ebc42e60a7753b7a")
	if !identity.Known {
		t.Fatal("expected digest to be known")
	}
	if identity.Title != "Star Fox 64 (U) (V1.1) - Compressed" {
		t.Fatalf("unexpected title %q", identity.Title)
	}
	if !identity.Compressed {
		t.Fatal("expected compressed flag")
	}
	if identity.Game != GameStarFox64 || identity.Game.ArchiveName() != "sf64.o2r" {
		t.Fatalf("unexpected game profile %q", identity.Game)
	}
}

func TestLookupNormalizesCaseAndWhitespace(t *testing.T) {
	identity := Lookup("  579C48E211AE952530FFC8738709F078D5DD215E\n")
	if !identity.Known || identity.Title != "Mario Kart 64 (US)" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if identity.Compressed {
		t.Fatal("Mario Kart 64 should not be flagged compressed")
	}
	if identity.Digest != "579c48e211ae952530ffc8738709f078d5dd215e" {
		t.Fatalf("digest not normalized: %q", identity.Digest)
	}
	if identity.Game.ArchiveName() != "mk64.o2r" || identity.Game.Port() != "SpaghettiKart" {
		t.Fatalf("unexpected profile for %q", identity.Game)
	}
}

func TestLookupUnknownDigest(t *testing.T) {
	cases := []string{
		"0000000000000000000000000000000000000000",
		"",
		// prefix of a known digest must not match
		"09f0d105f476b00efa5303a3ebc42e60a7753b7",
	}
	for _, digest := range cases {
		identity := Lookup(digest)
		if identity.Known {
			t.Fatalf("digest %q unexpectedly known", digest)
		}
		if identity.Compressed || identity.Title != "" {
			t.Fatalf("unknown identity should carry no metadata: %+v", identity)
		}
		if identity.DisplayTitle() != "Unknown ROM" || identity.Game.ArchiveName() != "output.o2r" {
			t.Fatalf("unexpected unknown rendering: %+v", identity)
		}
	}
}

func TestEntriesCompressionPairs(t *testing.T) {
	list := Entries()
	if len(list) != 11 {
		t.Fatalf("expected 11 catalog entries, got %d", len(list))
	}
	compressed := 0
	for i, entry := range list {
		if !entry.Known || len(entry.Digest) != 40 {
			t.Fatalf("malformed entry %+v", entry)
		}
		if entry.Compressed != strings.HasSuffix(entry.Title, "- Compressed") {
			t.Fatalf("compression flag disagrees with title for %q", entry.Title)
		}
		if entry.Compressed {
			compressed++
		}
		if i > 0 && list[i-1].Title > entry.Title {
			t.Fatal("entries not sorted by title")
		}
	}
	if compressed != 5 {
		t.Fatalf("expected 5 compressed releases, got %d", compressed)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	list := Entries()
	list[0].Title = "mutated"
	if Lookup(list[0].Digest).Title == "mutated" {
		t.Fatal("Entries exposed the internal table")
	}
}

func TestSupportedSummary(t *testing.T) {
	summary := SupportedSummary()
	if strings.Count(summary, "\n") != 10 {
		t.Fatalf("expected one line per entry, got:\n%s", summary)
	}
	if !strings.Contains(summary, "Star Fox 64 (JP) (V1.0) - Compressed: 9bd71afbecf4d0a43146e4e7a893395e19bf3220") {
		t.Fatalf("summary missing JP entry:\n%s", summary)
	}
}
