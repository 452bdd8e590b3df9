package commission

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type feeFile struct {
	Fees Defaults `yaml:"fees"`
}

// LoadDefaults reads fee defaults from a YAML file. A missing file yields fallback
// unchanged; zero values in the file keep the fallback for that field.
func LoadDefaults(feesFile string, fallback Defaults) (Defaults, error) {
	if feesFile == "" {
		return fallback, nil
	}

	feesPath := feesFile
	if !filepath.IsAbs(feesFile) {
		wd, err := os.Getwd()
		if err != nil {
			return fallback, fmt.Errorf("failed to get working directory: %w", err)
		}
		feesPath = filepath.Join(wd, feesFile)
	}

	data, err := os.ReadFile(feesPath)
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("unable to read %s: %w", feesFile, err)
	}

	var parsed feeFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fallback, fmt.Errorf("unable to parse %s: %w", feesFile, err)
	}

	out := fallback
	if parsed.Fees.PlatformFeeBps != 0 {
		out.PlatformFeeBps = parsed.Fees.PlatformFeeBps
	}
	if parsed.Fees.CommunityFeeBps != 0 {
		out.CommunityFeeBps = parsed.Fees.CommunityFeeBps
	}
	if parsed.Fees.MaxTotalFeeBps != 0 {
		out.MaxTotalFeeBps = parsed.Fees.MaxTotalFeeBps
	}

	if err := NewResolver(out).Validate(out.PlatformFeeBps, out.CommunityFeeBps); err != nil {
		return fallback, fmt.Errorf("defaults in %s are out of bounds: %w", feesFile, err)
	}
	return out, nil
}
