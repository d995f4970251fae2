package request

// Request is the operator-provided description of one dub run,
// decoded from yaml.
type Request struct {
	JobName        string       `yaml:"job_name"`
	Username       string       `yaml:"username"`
	InputVideo     string       `yaml:"input_video"`
	ProcessedDir   string       `yaml:"processed_dir"`
	OutputDir      string       `yaml:"output_dir"`
	SourceLanguage string       `yaml:"source_language"` // ISO code or AUTO
	TargetLanguage string       `yaml:"target_language"`
	Timing         Timing       `yaml:"timing"`
	Mix            Mix          `yaml:"mix"`
	Enrichment     Enrichment   `yaml:"enrichment"`
	TTS            TTS          `yaml:"tts"`
	VoiceConvert   VoiceConvert `yaml:"voice_conversion"`
	Persist        Persist      `yaml:"persist"`
	Notify         Notify       `yaml:"notify"`
}

// Timing controls how dubbed clips are fitted to their original slots.
type Timing struct {
	Tolerance      float64 `yaml:"tolerance"`        // default 0.15
	MinGap         float64 `yaml:"min_gap"`          // seconds, default 0
	MaxStretchRate float64 `yaml:"max_stretch_rate"` // default 1.5
}

// Mix controls gain staging and crossfades in the final render.
type Mix struct {
	CrossfadeMs      int     `yaml:"crossfade_ms"`       // default 50
	DuckDb           float64 `yaml:"duck_db"`            // default -9
	ForegroundGainDb float64 `yaml:"foreground_gain_db"` // default 0
	BackgroundGainDb float64 `yaml:"background_gain_db"` // default 0
}

// Enrichment controls the translation and synthesis worker pool.
type Enrichment struct {
	Workers    int `yaml:"workers"`     // default 4
	Retries    int `yaml:"retries"`     // default 3
	TimeoutSec int `yaml:"timeout_sec"` // default 120
}

type TTS struct {
	Voice        string `yaml:"voice"`
	LanguageCode string `yaml:"language_code"`
}

type VoiceConvert struct {
	Enabled    bool   `yaml:"enabled"`
	ModelPath  string `yaml:"model_path"`
	ConfigPath string `yaml:"config_path"`
	F0Method   string `yaml:"f0_method"`
}

type Persist struct {
	Database string `yaml:"database"` // sqlite path, empty runs in memory only
}

type Notify struct {
	Email    []string `yaml:"email"`
	SNSTopic string   `yaml:"sns_topic"`
	Bucket   string   `yaml:"bucket"`
}
