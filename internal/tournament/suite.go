package tournament

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/kigster/gomoku-eval/internal/engine"
)

// Suite declares several matchups run back-to-back. Top-level values are
// defaults a matchup block may override.
type Suite struct {
	Engine    string    `hcl:"engine,optional"`
	Trials    int       `hcl:"trials,optional"`
	BoardSize int       `hcl:"board_size,optional"`
	Radius    int       `hcl:"radius,optional"`
	Matchups  []Matchup `hcl:"matchup,block"`
}

// Matchup is one named depth pairing within a suite.
type Matchup struct {
	Name      string `hcl:"name,label"`
	DepthX    int    `hcl:"depth_x"`
	DepthO    int    `hcl:"depth_o"`
	Trials    int    `hcl:"trials,optional"`
	BoardSize int    `hcl:"board_size,optional"`
	Radius    int    `hcl:"radius,optional"`
}

// Config yields the trial configuration for this matchup.
func (m Matchup) Config() engine.TrialConfig {
	return engine.TrialConfig{
		DepthX:    m.DepthX,
		DepthO:    m.DepthO,
		BoardSize: m.BoardSize,
		Radius:    m.Radius,
	}
}

// LoadSuite reads and validates an HCL suite file.
func LoadSuite(filename string) (*Suite, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("suite file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse suite file: %s", diags.Error())
	}

	var suite Suite
	diags = gohcl.DecodeBody(file.Body, nil, &suite)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode suite file: %s", diags.Error())
	}

	suite.applyDefaults()
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

func (s *Suite) applyDefaults() {
	if s.Trials == 0 {
		s.Trials = 10
	}
	if s.BoardSize == 0 {
		s.BoardSize = 15
	}
	if s.Radius == 0 {
		s.Radius = 3
	}
	for i := range s.Matchups {
		m := &s.Matchups[i]
		if m.Trials == 0 {
			m.Trials = s.Trials
		}
		if m.BoardSize == 0 {
			m.BoardSize = s.BoardSize
		}
		if m.Radius == 0 {
			m.Radius = s.Radius
		}
	}
}

// Validate checks every matchup against the engine's accepted ranges.
func (s *Suite) Validate() error {
	if len(s.Matchups) == 0 {
		return fmt.Errorf("suite declares no matchups")
	}
	seen := make(map[string]bool, len(s.Matchups))
	for _, m := range s.Matchups {
		if seen[m.Name] {
			return fmt.Errorf("duplicate matchup %q", m.Name)
		}
		seen[m.Name] = true
		if err := m.Config().Validate(); err != nil {
			return fmt.Errorf("matchup %q: %w", m.Name, err)
		}
		if m.Trials < 0 {
			return fmt.Errorf("matchup %q: trials must not be negative", m.Name)
		}
	}
	return nil
}
