package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestToasterKeepsNewestFirst(t *testing.T) {
	toaster := NewToaster(slog.New(slog.DiscardHandler), 3)
	for i := 1; i <= 4; i++ {
		toaster.Success(fmt.Sprintf("done %d", i))
	}
	toaster.Error("Download failed.", errors.New("404"))

	recent := toaster.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 kept notifications, got %d", len(recent))
	}
	if recent[0].Level != LevelError || recent[0].Message != "Download failed." {
		t.Fatalf("expected newest error first, got %+v", recent[0])
	}
	if recent[1].Message != "done 4" || recent[2].Message != "done 3" {
		t.Fatalf("unexpected order %+v", recent)
	}
	for _, n := range recent {
		if _, err := uuid.Parse(n.ID); err != nil {
			t.Fatalf("expected uuid id, got %q", n.ID)
		}
	}
}

func TestToasterDefaultLimit(t *testing.T) {
	toaster := NewToaster(nil, 0)
	for i := 0; i < 25; i++ {
		toaster.Success("ok")
	}
	if got := len(toaster.Recent()); got != 20 {
		t.Fatalf("expected default limit 20, got %d", got)
	}
}
