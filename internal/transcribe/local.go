package transcribe

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/fedoraxfce/deskbin/internal/config"
	"github.com/fedoraxfce/deskbin/internal/models"
)

// LoadNamed opens the whisper.cpp model called name (tiny, base, small,
// medium, large or turbo) from the shared models dir. A missing model is
// downloaded first.
func LoadNamed(ctx context.Context, name, lang string) (*WhisperTranscriber, error) {
	if !slices.Contains(config.ModelNames, name) {
		return nil, fmt.Errorf("transcribe: unknown model %q (choose from %v)", name, config.ModelNames)
	}
	path := config.ModelPath(name)
	if _, err := os.Stat(path); err != nil {
		if path, err = models.New().Download(ctx, name, config.DefaultModelsDir()); err != nil {
			return nil, err
		}
	}
	return NewWhisperTranscriber(path, WhisperOptions{Language: lang})
}
