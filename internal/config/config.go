package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"simacca/internal/locale"
)

// Environment overrides applied after the YAML file is read.
const (
	EnvAPIURL        = "SIMACCA_API_URL"
	EnvListen        = "SIMACCA_LISTEN"
	EnvJWTSecret     = "SIMACCA_JWT_SECRET"
	EnvAdminPassword = "SIMACCA_ADMIN_PASSWORD"
	EnvLogLevel      = "SIMACCA_LOG_LEVEL"
)

// DefaultReferralTargets is the fixed list of roles an agenda can be referred to.
var DefaultReferralTargets = []string{
	"SEKCAM",
	"KASI PEMERINTAHAN",
	"KASI TRANTIBUN",
	"KASI KESRA",
	"KASI PMK",
	"KASI PELAYANAN",
	"KASUBAG UMUM",
	"KASUBAG PERENCANAAN & KEUANGAN",
	"LURAH",
}

// AdminConfig is the single credential pair granting the ADMIN role.
type AdminConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// SignatoryConfig is the acknowledgement block printed under each report day.
type SignatoryConfig struct {
	Heading  string `yaml:"heading" json:"heading"`
	Position string `yaml:"position" json:"position"`
	Name     string `yaml:"name" json:"name"`
	NIP      string `yaml:"nip" json:"nip"`
	Rank     string `yaml:"rank" json:"rank"`
}

// ReportConfig controls printable report output.
type ReportConfig struct {
	Title         string `yaml:"title" json:"title"`
	OfficialLabel string `yaml:"official_label" json:"official_label"`
	OutputDir     string `yaml:"output_dir" json:"output_dir"`
	// LetterheadLeft / LetterheadRight are file paths or http(s) URLs of the
	// logos printed at the top corners. Empty means a text placeholder.
	LetterheadLeft  string          `yaml:"letterhead_left" json:"letterhead_left"`
	LetterheadRight string          `yaml:"letterhead_right" json:"letterhead_right"`
	Signatory       SignatoryConfig `yaml:"signatory" json:"signatory"`
}

// ProfileConfig seeds the displayed user profile at startup.
type ProfileConfig struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA civil zone for all formatting (e.g. "Asia/Makassar").
	Timezone string `yaml:"timezone" json:"timezone"`
	// ZoneSuffix is appended to formatted times ("WITA").
	ZoneSuffix string `yaml:"zone_suffix" json:"zone_suffix"`

	// APIURL is the remote spreadsheet-backed endpoint used for reads and writes.
	APIURL string `yaml:"api_url" json:"api_url"`

	// RefreshCron is a cron spec for background sync (default "@every 60s").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// WriteSettleSeconds is how long to wait after a write before re-fetching.
	WriteSettleSeconds int `yaml:"write_settle_seconds" json:"write_settle_seconds"`

	ReferralTargets []string `yaml:"referral_targets" json:"referral_targets"`

	Admin        AdminConfig `yaml:"admin" json:"admin"`
	JWTSecret    string      `yaml:"jwt_secret" json:"-"`
	SessionHours int         `yaml:"session_hours" json:"session_hours"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Report  ReportConfig  `yaml:"report" json:"report"`
	Profile ProfileConfig `yaml:"profile" json:"profile"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = locale.DefaultTimezone
	}
	if c.ZoneSuffix == "" {
		c.ZoneSuffix = locale.DefaultSuffix
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 60s"
	}
	if c.WriteSettleSeconds <= 0 {
		c.WriteSettleSeconds = 2
	}
	if len(c.ReferralTargets) == 0 {
		c.ReferralTargets = append([]string(nil), DefaultReferralTargets...)
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.Password == "" {
		c.Admin.Password = "samiun15"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "change-me"
	}
	if c.SessionHours <= 0 {
		c.SessionHours = 12
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	r := &c.Report
	if r.Title == "" {
		r.Title = "RENCANA KEGIATAN KECAMATAN UJUNG PANDANG"
	}
	if r.OfficialLabel == "" {
		r.OfficialLabel = "CAMAT"
	}
	if r.OutputDir == "" {
		r.OutputDir = "./reports"
	}
	s := &r.Signatory
	if s.Heading == "" {
		s.Heading = "MENGETAHUI,"
	}
	if s.Position == "" {
		s.Position = "SEKRETARIS CAMAT"
	}
	if s.Name == "" {
		s.Name = "FIRMAN JAMALUDDIN, S.STP"
	}
	if s.NIP == "" {
		s.NIP = "19820103 200112 1 003"
	}
	if s.Rank == "" {
		s.Rank = "Penata TK I - IIId"
	}

	if c.Profile.Name == "" {
		c.Profile.Name = "Nanin Sudiar, A.P."
	}
	if c.Profile.Title == "" {
		c.Profile.Title = "Camat Ujung Pandang"
	}
}

// WriteSettle returns WriteSettleSeconds as a duration.
func (c *Config) WriteSettle() time.Duration {
	return time.Duration(c.WriteSettleSeconds) * time.Second
}

// SessionTTL returns SessionHours as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionHours) * time.Hour
}

// Civil resolves the configured display zone.
func (c *Config) Civil() locale.Civil {
	return locale.NewCivil(c.Timezone, c.ZoneSuffix)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600 perms.
//   - Otherwise the YAML is read and normalized.
//   - A .env file next to the working directory (if any) is loaded, then
//     SIMACCA_* variables override the file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := readOrCreate(path)
	if err != nil {
		return cfg, err
	}

	// Missing .env is normal outside development.
	_ = godotenv.Load()
	cfg.ApplyEnv(os.LookupEnv)

	return cfg, nil
}

func readOrCreate(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production and a map-backed func in tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAPIURL, &c.APIURL)
	set(EnvListen, &c.Listen)
	set(EnvJWTSecret, &c.JWTSecret)
	set(EnvAdminPassword, &c.Admin.Password)
	set(EnvLogLevel, &c.LogLevel)
}

// Save writes the configuration atomically via a temp file + rename with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".simacca-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
