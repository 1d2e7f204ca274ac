package controller

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/kacebover/clutter-finder/finder"
	"github.com/kacebover/clutter-finder/logging"
)

// ResizeAlgorithm is one row of the resize filter table
type ResizeAlgorithm struct {
	SettingName string
	GUIName     string
	Value       finder.FilterType
}

// HashType is one row of the hash algorithm table
type HashType struct {
	SettingName string
	GUIName     string
	Value       finder.HashAlg
}

// HashSizeValue is one row of the hash size table
type HashSizeValue struct {
	GUIName string
	Value   uint8
}

// AllowedResizeAlgorithmValues maps stable setting names to resize filters
var AllowedResizeAlgorithmValues = []ResizeAlgorithm{
	{"lanczos3", "Lanczos3", finder.FilterLanczos3},
	{"gaussian", "Gaussian", finder.FilterGaussian},
	{"catmullrom", "CatmullRom", finder.FilterCatmullRom},
	{"triangle", "Triangle", finder.FilterTriangle},
	{"nearest", "Nearest", finder.FilterNearest},
}

// AllowedHashTypeValues maps stable setting names to hash algorithms
var AllowedHashTypeValues = []HashType{
	{"mean", "Mean", finder.HashMean},
	{"gradient", "Gradient", finder.HashGradient},
	{"blockhash", "BlockHash", finder.HashBlockhash},
	{"vertgradient", "VertGradient", finder.HashVertGradient},
	{"doublegradient", "DoubleGradient", finder.HashDoubleGradient},
}

// AllowedHashSizeValues lists the hash sizes the similar image finder accepts
var AllowedHashSizeValues = []HashSizeValue{
	{"8", 8},
	{"16", 16},
	{"32", 32},
	{"64", 64},
}

// LookupResizeAlgorithm returns the filter for a setting name.
// An unknown name means the settings UI and this table disagree, so it panics.
func LookupResizeAlgorithm(settingName string) finder.FilterType {
	for _, alg := range AllowedResizeAlgorithmValues {
		if alg.SettingName == settingName {
			return alg.Value
		}
	}
	panic("resize algorithm not found")
}

// LookupHashType returns the hash algorithm for a setting name. Panics on unknown names.
func LookupHashType(settingName string) finder.HashAlg {
	for _, ht := range AllowedHashTypeValues {
		if ht.SettingName == settingName {
			return ht.Value
		}
	}
	panic("hash type not found")
}

// Settings holds everything the settings tab edits. It is persisted as YAML.
type Settings struct {
	IncludedDirectories    []string `yaml:"included_directories"`
	ReferencedDirectories  []string `yaml:"referenced_directories"`
	ExcludedDirectories    []string `yaml:"excluded_directories"`
	RecursiveSearch        bool     `yaml:"recursive_search"`
	MinimumFileSizeKB      int64    `yaml:"minimum_file_size_kb"`
	MaximumFileSizeKB      int64    `yaml:"maximum_file_size_kb"`
	AllowedExtensions      string   `yaml:"allowed_extensions"`
	ExcludedExtensions     string   `yaml:"excluded_extensions"`
	ExcludedItems          string   `yaml:"excluded_items"`
	IgnoreOtherFileSystems bool     `yaml:"ignore_other_file_systems"`
	UseCache               bool     `yaml:"use_cache"`
	SaveAlsoAsJSON         bool     `yaml:"save_also_as_json"`
	ThreadNumber           int      `yaml:"thread_number"`
	CachePath              string   `yaml:"cache_path,omitempty"`

	SimilarImagesHashSize        uint8   `yaml:"similar_images_hash_size"`
	SimilarImagesResizeAlgorithm string  `yaml:"similar_images_resize_algorithm"`
	SimilarImagesHashType        string  `yaml:"similar_images_hash_type"`
	SimilarImagesIgnoreSameSize  bool    `yaml:"similar_images_ignore_same_size"`
	SimilarImagesSimilarity      float32 `yaml:"similar_images_similarity"`

	Logging logging.Config `yaml:"logging"`
}

const maxThreads = 64

// ScanSettings is the immutable snapshot a single scan works from
type ScanSettings Settings

// DefaultSettings returns the default settings
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()

	return &Settings{
		IncludedDirectories:   []string{homeDir},
		ReferencedDirectories: nil,
		ExcludedDirectories:   nil,
		RecursiveSearch:       true,
		MinimumFileSizeKB:     16,
		MaximumFileSizeKB:     1024 * 1024 * 1024,
		AllowedExtensions:     "",
		ExcludedExtensions:    "",
		ExcludedItems:         "*/.git/*,*/node_modules/*,*/lost+found/*,*/Trash/*,*/.Trash-*/*,*/snap/*",
		UseCache:              true,
		SaveAlsoAsJSON:        false,
		ThreadNumber:          min(runtime.NumCPU(), maxThreads),

		SimilarImagesHashSize:        16,
		SimilarImagesResizeAlgorithm: "nearest",
		SimilarImagesHashType:        "mean",
		SimilarImagesIgnoreSameSize:  false,
		SimilarImagesSimilarity:      10,

		Logging: logging.DefaultConfig(),
	}
}

// SettingsPath returns the location of the settings file
func SettingsPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("clutter-finder", "settings.yaml"))
}

// LoadSettings reads settings from path. A missing file yields defaults.
// On a validation error the normalized settings are returned with it.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parsing settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("validating settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to path, creating the directory if needed
func SaveSettings(path string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// maxSizeKB keeps a size in KiB convertible to bytes
const maxSizeKB = math.MaxInt64 / 1024

// Validate normalizes values a hand-edited file could get wrong. Out of range
// numbers are clamped silently. An unknown hash type or resize filter name is
// replaced by its default and reported in the returned error.
func (s *Settings) Validate() error {
	var errs []error
	defaults := DefaultSettings()

	if s.MinimumFileSizeKB < 0 {
		s.MinimumFileSizeKB = 0
	}
	if s.MinimumFileSizeKB > maxSizeKB {
		s.MinimumFileSizeKB = maxSizeKB
	}
	if s.MaximumFileSizeKB > maxSizeKB {
		s.MaximumFileSizeKB = maxSizeKB
	}
	if s.MaximumFileSizeKB < s.MinimumFileSizeKB {
		s.MaximumFileSizeKB = s.MinimumFileSizeKB
	}

	if s.ThreadNumber < 1 {
		s.ThreadNumber = min(runtime.NumCPU(), maxThreads)
	}
	if s.ThreadNumber > maxThreads {
		s.ThreadNumber = maxThreads
	}

	validHashSize := false
	for _, hs := range AllowedHashSizeValues {
		if hs.Value == s.SimilarImagesHashSize {
			validHashSize = true
			break
		}
	}
	if !validHashSize {
		s.SimilarImagesHashSize = 16
	}

	if !hasResizeAlgorithm(s.SimilarImagesResizeAlgorithm) {
		errs = append(errs, fmt.Errorf("unknown similar images resize algorithm %q", s.SimilarImagesResizeAlgorithm))
		s.SimilarImagesResizeAlgorithm = defaults.SimilarImagesResizeAlgorithm
	}
	if !hasHashType(s.SimilarImagesHashType) {
		errs = append(errs, fmt.Errorf("unknown similar images hash type %q", s.SimilarImagesHashType))
		s.SimilarImagesHashType = defaults.SimilarImagesHashType
	}

	if !logging.ValidLevel(s.Logging.Level) {
		s.Logging.Level = "info"
	}
	if !logging.ValidFormat(s.Logging.Format) {
		s.Logging.Format = "text"
	}

	maxSimilarity := float32(finder.MaxSimilarity(s.SimilarImagesHashSize))
	if s.SimilarImagesSimilarity < 0 {
		s.SimilarImagesSimilarity = 0
	}
	if s.SimilarImagesSimilarity > maxSimilarity {
		s.SimilarImagesSimilarity = maxSimilarity
	}
	return errors.Join(errs...)
}

func hasResizeAlgorithm(name string) bool {
	for _, alg := range AllowedResizeAlgorithmValues {
		if alg.SettingName == name {
			return true
		}
	}
	return false
}

func hasHashType(name string) bool {
	for _, ht := range AllowedHashTypeValues {
		if ht.SettingName == name {
			return true
		}
	}
	return false
}

// Snapshot captures the current settings as an independent copy
func (s *Settings) Snapshot() ScanSettings {
	snap := ScanSettings(*s)
	snap.IncludedDirectories = cloneStrings(s.IncludedDirectories)
	snap.ReferencedDirectories = cloneStrings(s.ReferencedDirectories)
	snap.ExcludedDirectories = cloneStrings(s.ExcludedDirectories)
	return snap
}

// ExcludedItemsList splits the comma separated excluded items into trimmed patterns
func (s ScanSettings) ExcludedItemsList() []string {
	return SplitExcludedItems(s.ExcludedItems)
}

// SplitExcludedItems splits a comma separated list, trimming blanks and dropping empty items
func SplitExcludedItems(items string) []string {
	parts := strings.Split(items, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
