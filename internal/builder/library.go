package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

// Library resolves pre-built artifacts so generic orders skip a full build.
// Layout: <dir>/<gameType>/<geoId>_{preview|final}.html.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Path returns the pre-built artifact for a game/geo pair, or "" when none
// exists.
func (l *Library) Path(gameType, geoID string, watermarked bool) string {
	variant := "final"
	if watermarked {
		variant = "preview"
	}
	path := filepath.Join(l.dir, gameType, fmt.Sprintf("%s_%s.html", geoID, variant))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
