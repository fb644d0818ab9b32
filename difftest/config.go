package difftest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/difftest/arch"
)

// MaxCores is the largest number of cores a session can track.
const MaxCores = 256

// Config holds the parameters of a differential-testing session.
type Config struct {
	// NumCores is the number of simulated cores. Default: 1.
	NumCores int `json:"num_cores" yaml:"num_cores"`

	// CommitWidth is the number of commit ports per core. Commit, store and
	// load indices must be below it. Default: 8.
	CommitWidth int `json:"commit_width" yaml:"commit_width"`

	// EnableFPU compares the floating-point register file when the hardware
	// sends FP snapshots. Default: false.
	EnableFPU bool `json:"enable_fpu" yaml:"enable_fpu"`

	// CheckCSR compares CSR snapshots against the reference model.
	// Default: true.
	CheckCSR bool `json:"check_csr" yaml:"check_csr"`

	// CheckRegSnapshot compares general register snapshots against the
	// reference model. Default: true.
	CheckRegSnapshot bool `json:"check_reg_snapshot" yaml:"check_reg_snapshot"`

	// CheckMemory cross-checks store and load events against the reference
	// model's memory trace. Default: true.
	CheckMemory bool `json:"check_memory" yaml:"check_memory"`

	// IgnoreCSRs lists CSR names excluded from comparison. Timer values
	// drift between hardware and the reference model. Default: ["tval"].
	IgnoreCSRs []string `json:"ignore_csrs" yaml:"ignore_csrs"`

	// CommitTimeout is the number of cycles a running core may go without a
	// commit before the session diverges. 0 disables the check.
	// Default: 5000 cycles.
	CommitTimeout uint64 `json:"commit_timeout" yaml:"commit_timeout"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	return &Config{
		NumCores:         1,
		CommitWidth:      8,
		EnableFPU:        false,
		CheckCSR:         true,
		CheckRegSnapshot: true,
		CheckMemory:      true,
		IgnoreCSRs:       []string{"tval"},
		CommitTimeout:    5000,
	}
}

// LoadConfig loads a Config from a YAML (.yaml, .yml) or JSON file. Fields
// missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read difftest config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse difftest config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a YAML or JSON file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize difftest config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write difftest config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.NumCores <= 0 || c.NumCores > MaxCores {
		return fmt.Errorf("num_cores must be in [1, %d]", MaxCores)
	}
	if c.CommitWidth <= 0 || c.CommitWidth > 256 {
		return fmt.Errorf("commit_width must be in [1, 256]")
	}
	for _, name := range c.IgnoreCSRs {
		if _, ok := arch.CSRByName(name); !ok {
			return fmt.Errorf("ignore_csrs: unknown CSR %q", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.IgnoreCSRs = append([]string(nil), c.IgnoreCSRs...)
	return &clone
}

// ignoredCSRs resolves IgnoreCSRs. Unknown names are skipped; Validate
// reports them.
func (c *Config) ignoredCSRs() [arch.NumCSRs]bool {
	var ignored [arch.NumCSRs]bool
	for _, name := range c.IgnoreCSRs {
		if csr, ok := arch.CSRByName(name); ok {
			ignored[csr] = true
		}
	}
	return ignored
}
