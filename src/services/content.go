package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/khabaroff/portfolio-site/src/models"
)

// DefaultLocale is served when a requested locale has no dictionary
const DefaultLocale = "en"

var (
	// ErrContentUnavailable indicates the portfolio document could not be loaded
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrInvalidLocale indicates a locale code outside the accepted pattern
	ErrInvalidLocale = errors.New("invalid locale")

	localePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

// ContentProvider returns the structured portfolio document
type ContentProvider interface {
	Portfolio(ctx context.Context) (*models.Portfolio, error)
}

// DictionaryProvider returns UI strings for a locale
type DictionaryProvider interface {
	Dictionary(ctx context.Context, locale string) (map[string]string, string, error)
}

// YAMLContent reads the portfolio document from a YAML file and reloads it when the file changes
type YAMLContent struct {
	path string

	mu      sync.Mutex
	modTime int64
	cached  *models.Portfolio
}

// NewYAMLContent creates a provider for the file at path
func NewYAMLContent(path string) *YAMLContent {
	return &YAMLContent{path: path}
}

func (p *YAMLContent) Portfolio(_ context.Context) (*models.Portfolio, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && info.ModTime().UnixNano() == p.modTime {
		return p.cached, nil
	}

	raw, err := os.ReadFile(p.path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	var doc models.Portfolio
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	p.cached = &doc
	p.modTime = info.ModTime().UnixNano()
	return p.cached, nil
}

// YAMLDictionaries reads <dir>/<locale>.yaml flat string maps
type YAMLDictionaries struct {
	dir string

	mu    sync.RWMutex
	cache map[string]map[string]string
}

// NewYAMLDictionaries creates a provider over dir
func NewYAMLDictionaries(dir string) *YAMLDictionaries {
	return &YAMLDictionaries{dir: dir, cache: make(map[string]map[string]string)}
}

// Dictionary returns the strings for locale and the locale actually served.
// Unknown locales fall back to DefaultLocale.
func (d *YAMLDictionaries) Dictionary(_ context.Context, locale string) (map[string]string, string, error) {
	if !localePattern.MatchString(locale) {
		return nil, "", ErrInvalidLocale
	}

	if dict, err := d.load(locale); err == nil {
		return dict, locale, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}

	dict, err := d.load(DefaultLocale)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	return dict, DefaultLocale, nil
}

func (d *YAMLDictionaries) load(locale string) (map[string]string, error) {
	d.mu.RLock()
	dict, ok := d.cache[locale]
	d.mu.RUnlock()
	if ok {
		return dict, nil
	}

	raw, err := os.ReadFile(filepath.Join(d.dir, locale+".yaml")) // #nosec G304 -- locale is validated
	if err != nil {
		return nil, err
	}

	dict = make(map[string]string)
	if err := yaml.Unmarshal(raw, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse %s dictionary: %w", locale, err)
	}

	d.mu.Lock()
	d.cache[locale] = dict
	d.mu.Unlock()
	return dict, nil
}
