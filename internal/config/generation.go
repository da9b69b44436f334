package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDailyGenerationLimit is the number of generations a user may start
// per calendar day.
const DefaultDailyGenerationLimit = 50

// PresetVoice is a system voice available to every user.
type PresetVoice struct {
	ID              string
	Name            string
	ExternalVoiceID string
	Language        string
}

// GenerationConfig holds text-to-speech accounting settings.
type GenerationConfig struct {
	DailyLimit int
	// Location defines "today" for the daily limit.
	Location *time.Location
	Presets  map[string]PresetVoice
}

// DefaultPresetVoices are used when PRESET_VOICES is unset.
var DefaultPresetVoices = []PresetVoice{
	{ID: "preset-rachel", Name: "Rachel", ExternalVoiceID: "21m00Tcm4TlvDq8ikWAM", Language: "en"},
	{ID: "preset-adam", Name: "Adam", ExternalVoiceID: "pNInz6obpgDQGcFmaJgB", Language: "en"},
	{ID: "preset-bella", Name: "Bella", ExternalVoiceID: "EXAVITQu4vr4xnSDxMaL", Language: "en"},
}

// Preset returns the preset voice with the given ID.
func (c GenerationConfig) Preset(id string) (PresetVoice, bool) {
	p, ok := c.Presets[id]
	return p, ok
}

// StartOfDay returns local midnight of t in the configured location.
func (c GenerationConfig) StartOfDay(t time.Time) time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

func loadGenerationConfig() (GenerationConfig, error) {
	cfg := GenerationConfig{
		DailyLimit: getEnvInt("DAILY_GENERATION_LIMIT", DefaultDailyGenerationLimit),
		Location:   time.Local,
	}

	if tz := getEnv("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	presets := DefaultPresetVoices
	if raw := getEnv("PRESET_VOICES", ""); raw != "" {
		parsed, err := ParsePresetVoices(raw)
		if err != nil {
			return cfg, err
		}
		presets = parsed
	}
	cfg.Presets = make(map[string]PresetVoice, len(presets))
	for _, p := range presets {
		cfg.Presets[p.ID] = p
	}

	return cfg, nil
}

// ParsePresetVoices parses "id:name:externalId[:language],..." entries.
func ParsePresetVoices(raw string) ([]PresetVoice, error) {
	var out []PresetVoice
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid preset voice %q: want id:name:externalId[:language]", entry)
		}
		p := PresetVoice{ID: parts[0], Name: parts[1], ExternalVoiceID: parts[2], Language: "en"}
		if len(parts) == 4 && parts[3] != "" {
			p.Language = parts[3]
		}
		if p.ID == "" || p.ExternalVoiceID == "" {
			return nil, fmt.Errorf("invalid preset voice %q: id and externalId are required", entry)
		}
		out = append(out, p)
	}
	return out, nil
}
