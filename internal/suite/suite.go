// Package suite reads test-case files and converts between the serialized map
// format and grid.MapDefinition.
//
// A suite file is either a JSON array of cases or JSONL (one case per line):
//
//	{"variant": 1, "map": {"g": [x, y], "m": [x, y], "c": [x, y],
//	 "enemies": [{"kind": "O", "x": 3, "y": 4}]}}
package suite

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"ringjudge/internal/grid"
	"ringjudge/internal/logging"
)

// ErrEmptySuite is returned when a suite file holds no cases.
var ErrEmptySuite = errors.New("suite: no test cases")

// Coordinates are bounded by grid.Size (13).
var validate = validator.New()

// SerializedAgent is an enemy entry of a serialized map.
type SerializedAgent struct {
	Kind string `json:"kind" validate:"oneof=O U N W"`
	X    int    `json:"x" validate:"min=0,max=12"`
	Y    int    `json:"y" validate:"min=0,max=12"`
}

// SerializedMap is the on-disk form of a map definition.
type SerializedMap struct {
	G       [2]int            `json:"g" validate:"dive,min=0,max=12"`
	M       [2]int            `json:"m" validate:"dive,min=0,max=12"`
	C       [2]int            `json:"c" validate:"dive,min=0,max=12"`
	Enemies []SerializedAgent `json:"enemies" validate:"dive"`
}

// Case is one test case: a map and the visibility variant to run it with.
type Case struct {
	// Index is the 0-based position of the case in its file.
	Index   int           `json:"-"`
	Variant int           `json:"variant" validate:"min=1"`
	Map     SerializedMap `json:"map"`
}

// Validate checks coordinates, kinds and the variant.
func (c Case) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("case %d: %w", c.Index, err)
	}
	return nil
}

// Definition converts the case's map into a MapDefinition.
func (c Case) Definition() (*grid.MapDefinition, error) {
	m, err := MapFromSerialized(c.Map)
	if err != nil {
		return nil, fmt.Errorf("case %d: %w", c.Index, err)
	}
	return m, nil
}

// MapFromSerialized builds a MapDefinition from its serialized form.
func MapFromSerialized(s SerializedMap) (*grid.MapDefinition, error) {
	agents := make([]grid.Agent, 0, len(s.Enemies))
	for _, e := range s.Enemies {
		kind, err := grid.ParseKind(e.Kind)
		if err != nil {
			return nil, err
		}
		agents = append(agents, grid.Agent{Kind: kind, Pos: grid.Cell{X: e.X, Y: e.Y}})
	}
	return grid.NewMapDefinition(cellOf(s.G), cellOf(s.M), cellOf(s.C), agents)
}

// Serialize converts a MapDefinition into its on-disk form.
func Serialize(m *grid.MapDefinition) SerializedMap {
	enemies := make([]SerializedAgent, 0, len(m.Agents))
	for _, a := range m.Agents {
		enemies = append(enemies, SerializedAgent{Kind: string(a.Kind), X: a.Pos.X, Y: a.Pos.Y})
	}
	return SerializedMap{
		G:       pairOf(m.Waypoint),
		M:       pairOf(m.Destination),
		C:       pairOf(m.Pickup),
		Enemies: enemies,
	}
}

// ReadFile loads every case of a JSON or JSONL suite file. An empty file yields
// ErrEmptySuite.
func ReadFile(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	cases, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Suite("Loaded %d cases from %s", len(cases), path)
	return cases, nil
}

// Parse decodes suite contents. A leading '[' selects the JSON array form;
// anything else is read as JSONL with blank lines skipped.
func Parse(data []byte) ([]Case, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptySuite
	}

	var cases []Case
	if data[0] == '[' {
		if err := json.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("decode suite array: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var c Case
			if err := json.Unmarshal(line, &c); err != nil {
				return nil, fmt.Errorf("decode suite line %d: %w", lineNo, err)
			}
			cases = append(cases, c)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan suite: %w", err)
		}
	}

	if len(cases) == 0 {
		return nil, ErrEmptySuite
	}
	for i := range cases {
		cases[i].Index = i
		if err := cases[i].Validate(); err != nil {
			logging.SuiteWarn("Rejecting suite: %v", err)
			return nil, err
		}
	}
	return cases, nil
}

// WriteFile writes cases as JSONL.
func WriteFile(path string, cases []Case) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range cases {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode case %d: %w", c.Index, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write suite: %w", err)
	}
	return nil
}

func cellOf(p [2]int) grid.Cell {
	return grid.Cell{X: p[0], Y: p[1]}
}

func pairOf(c grid.Cell) [2]int {
	return [2]int{c.X, c.Y}
}
