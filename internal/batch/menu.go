package batch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/fedoraxfce/deskbin/internal/prompt"
)

// Choice is the outcome of one menu prompt.
type Choice struct {
	Files    []int  // zero-based indices; empty means exit
	Language string // set when the user switched language
}

func isLanguageCode(s string) bool {
	if len(s) == 0 || len([]rune(s)) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParseChoice interprets a menu answer for n files. ok is false when the
// answer selected nothing and should be asked again; problems are
// described in notes.
func ParseChoice(answer string, n int) (c Choice, notes []string, ok bool) {
	answer = strings.TrimSpace(answer)
	switch {
	case answer == "":
		return Choice{}, nil, true
	case isLanguageCode(answer):
		return Choice{Language: answer}, nil, true
	case answer == "0":
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return Choice{Files: all}, nil, true
	}

	for _, f := range strings.Fields(answer) {
		num, err := strconv.Atoi(f)
		switch {
		case err != nil:
			notes = append(notes, fmt.Sprintf("'%s' is not a number or valid language code", f))
		case num < 1 || num > n:
			notes = append(notes, fmt.Sprintf("Number %s out of range", f))
		default:
			c.Files = append(c.Files, num-1)
		}
	}
	if len(c.Files) == 0 {
		notes = append(notes, "No files selected. Try again.")
		return c, notes, false
	}
	return c, notes, true
}

// Select shows the file menu until files are chosen or the user leaves.
// Language switches redraw the menu. It returns the chosen files and the
// language in effect. Ending input or cancelling ctx chooses nothing.
func (t *Transcriber) Select(ctx context.Context, in io.Reader, files []string, lang string) ([]int, string) {
	r := prompt.NewReader(in)
	for {
		t.menu(files, lang)
		for {
			t.printf("\nChoice: ")
			line, err := r.ReadLine(ctx)
			if ctx.Err() != nil || (err != nil && strings.TrimSpace(line) == "") {
				t.printf("\n\nCancelled by user\n")
				return nil, lang
			}
			c, notes, ok := ParseChoice(line, len(files))
			for _, n := range notes {
				t.printf("%s\n", n)
			}
			if !ok {
				if err != nil {
					return nil, lang
				}
				continue
			}
			if c.Language != "" {
				lang = c.Language
				t.printf("Language changed to: %s\n", lang)
				break
			}
			return c.Files, lang
		}
	}
}

func (t *Transcriber) menu(files []string, lang string) {
	t.printf("\n%s\nWhisper Transcription Tool\n%s\n", heavy, heavy)
	t.printf("Current language: %s\n%s\n", lang, heavy)
	t.printf("0) All files\n")
	for i, f := range files {
		mark := " "
		if Transcribed(f, t.OutDir) {
			mark = "✓"
		}
		t.printf("%d) [%s] %s\n", i+1, mark, filepath.Base(f))
	}
	t.printf("%s\n", heavy)
	t.printf("Enter numbers separated by space (e.g.: 1 3 5) or 0 for all\n")
	t.printf("Or type language code (e.g.: en, ru, es) to change language\n")
	t.printf("Press Enter without input to exit\n")
}
