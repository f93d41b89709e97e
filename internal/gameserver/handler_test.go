package gameserver

import (
	"testing"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
)

func TestWeatherFor(t *testing.T) {
	if got := weatherFor(0); got != protocol.WeatherClear {
		t.Errorf("weatherFor(0) = %v, want Clear", got)
	}
	if got := weatherFor(1); got != protocol.WeatherRainy {
		t.Errorf("weatherFor(1) = %v, want Rainy", got)
	}
}

func TestRestrictDrawTilesRejectsNonDrawTile(t *testing.T) {
	if restrictDrawTiles(0) != nil {
		t.Error("tile 0 isn't a member of DRAW_TILES and should be rejected")
	}
	if restrictDrawTiles(13) == nil {
		t.Error("tile 13 is a member of DRAW_TILES and should be accepted")
	}
}
