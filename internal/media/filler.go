package media

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipcaster/internal/services"
)

// PickFiller returns a random *.mp4 from dir.
func PickFiller(dir string, rng *rand.Rand) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "media", "filler", "read filler dir "+dir, err)
	}
	var clips []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ".mp4") {
			clips = append(clips, filepath.Join(dir, entry.Name()))
		}
	}
	if len(clips) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "media", "filler", fmt.Sprintf("no .mp4 clips in %s", dir), nil)
	}
	sort.Strings(clips)
	if rng == nil {
		return clips[rand.IntN(len(clips))], nil
	}
	return clips[rng.IntN(len(clips))], nil
}
