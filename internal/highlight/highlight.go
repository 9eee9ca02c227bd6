// Package highlight colorizes diffs and file contents for terminal output.
package highlight

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog/log"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

const (
	lightStyle = "github"
	darkStyle  = "github-dark"
	formatter  = "terminal256"
)

var detectDarkMode = darkmode.IsDarkMode

func ThemePreferenceFromString(raw string) ThemePreference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

// StyleName picks the chroma style for pref. Auto asks the desktop whether
// dark mode is on and falls back to the light style when that fails.
func StyleName(pref ThemePreference) string {
	switch pref {
	case ThemeDark:
		return darkStyle
	case ThemeLight:
		return lightStyle
	}
	if detectDarkMode != nil {
		dark, err := detectDarkMode()
		if err != nil {
			log.Debug().Err(err).Msg("detect dark mode")
		} else if dark {
			return darkStyle
		}
	}
	return lightStyle
}

// Diff writes text colorized as a unified diff.
func Diff(w io.Writer, text string, pref ThemePreference) error {
	return render(w, lexers.Get("diff"), text, pref)
}

// File writes content colorized for the language guessed from path. Unknown
// languages are written through the plain-text lexer.
func File(w io.Writer, path, content string, pref ThemePreference) error {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	return render(w, lexer, content, pref)
}

func render(w io.Writer, lexer chroma.Lexer, text string, pref ThemePreference) error {
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(StyleName(pref))
	if style == nil {
		style = styles.Fallback
	}
	f := formatters.Get(formatter)
	if f == nil {
		f = formatters.Fallback
	}
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("tokenise: %w", err)
	}
	if err := f.Format(w, style, iterator); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	return nil
}
