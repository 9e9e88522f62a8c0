package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"ringjudge/internal/grid"
	"ringjudge/internal/interactor"
	"ringjudge/internal/logging"
	"ringjudge/internal/suite"
)

// RenderASCII draws the board with rows indexed by x and columns by y, the
// origin as S, landmarks, agents, and every free hazard cell as mark.
func RenderASCII(m *grid.MapDefinition, hazards grid.CellSet, mark string) string {
	var board [grid.Size][grid.Size]string
	for x := range board {
		for y := range board[x] {
			board[x][y] = "."
		}
	}
	board[grid.Origin.X][grid.Origin.Y] = "S"
	board[m.Waypoint.X][m.Waypoint.Y] = "G"
	board[m.Pickup.X][m.Pickup.Y] = "C"
	board[m.Destination.X][m.Destination.Y] = "M"
	for _, a := range m.Agents {
		board[a.Pos.X][a.Pos.Y] = string(a.Kind)
	}
	for c := range hazards {
		if board[c.X][c.Y] == "." {
			board[c.X][c.Y] = mark
		}
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for y := 0; y < grid.Size; y++ {
		fmt.Fprintf(&sb, " %2d", y)
	}
	for x := 0; x < grid.Size; x++ {
		fmt.Fprintf(&sb, "\n%2d  ", x)
		cells := make([]string, grid.Size)
		for y := 0; y < grid.Size; y++ {
			cells[y] = fmt.Sprintf("%-2s", board[x][y])
		}
		sb.WriteString(strings.Join(cells, " "))
	}
	return sb.String()
}

// Failure is everything needed to reproduce and inspect a failed run.
type Failure struct {
	Algo     string
	Variant  int
	Index    int
	Map      *grid.MapDefinition
	Hazards  *grid.HazardCache
	Expected *int
	Outcome  interactor.Outcome
}

// FileName is the dump's name within the failures directory.
func (f Failure) FileName() string {
	return fmt.Sprintf("%s_v%d_map%04d_%s.txt", f.Algo, f.Variant, f.Index, f.Outcome.Reason)
}

// Render produces the dump text.
func (f Failure) Render() (string, error) {
	o := f.Outcome
	var sb strings.Builder
	fmt.Fprintf(&sb, "run_id: %s | map_index: %d\n", o.RunID, f.Index)
	fmt.Fprintf(&sb, "algo: %s | variant: %d\n", f.Algo, f.Variant)
	fmt.Fprintf(&sb, "success: %t | reason: %s\n", o.Success, o.Reason)
	fmt.Fprintf(&sb, "claimed_unsolvable: %t | was_solvable: %t\n", o.ClaimedUnsolvable, o.WasSolvable)
	fmt.Fprintf(&sb, "moves: %d | toggles: %d | runtime: %s\n", o.Moves, o.Toggles, o.Runtime)
	fmt.Fprintf(&sb, "reported_length: %s | expected_shortest (incl. waypoint leg): %s\n",
		optionalInt(o.ReportedLength), optionalInt(f.Expected))

	sb.WriteString("\n-- ASCII map (base hazards='*', ring off, no coat) --\n")
	sb.WriteString(RenderASCII(f.Map, f.Hazards.Zone(grid.Loadout{}), "*"))
	sb.WriteString("\n\n-- With ring ON (hazards='+') --\n")
	sb.WriteString(RenderASCII(f.Map, f.Hazards.Zone(grid.Loadout{Ring: true}), "+"))
	sb.WriteString("\n\n-- With COAT (hazards='#') --\n")
	sb.WriteString(RenderASCII(f.Map, f.Hazards.Zone(grid.Loadout{Coat: true}), "#"))

	data, err := json.Marshal(suite.Serialize(f.Map))
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	sb.WriteString("\n\n-- JSON (to reproduce) --\n")
	sb.Write(data)
	sb.WriteString("\n")

	if len(o.Transcript) > 0 {
		sb.WriteString("\n-- Protocol transcript --\n")
		sb.WriteString(strings.Join(o.Transcript, "\n"))
		sb.WriteString("\n")
	}
	if o.Diagnostics != "" {
		sb.WriteString("\n-- Program stderr --\n")
		sb.WriteString(o.Diagnostics)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// DumpFailure writes f under <dir>/failures and returns the file path.
func DumpFailure(dir string, f Failure) (string, error) {
	text, err := f.Render()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "failures", f.FileName())
	if err := writeFile(path, []byte(text)); err != nil {
		return "", err
	}
	logging.ReportWarn("Failure dump: %s", path)
	return path, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprint(*v)
}
