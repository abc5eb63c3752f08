package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed board.yaml
var defaultBoard []byte

type boardDoc struct {
	Size    int         `yaml:"size"`
	Ladders map[int]int `yaml:"ladders"`
	Snakes  map[int]int `yaml:"snakes"`
	Items   []itemDoc   `yaml:"items"`
}

type itemDoc struct {
	Name   string    `yaml:"name"`
	Cost   int       `yaml:"cost"`
	Effect effectDoc `yaml:"effect"`
}

type effectDoc struct {
	Effect
}

func (d *effectDoc) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Kind string `yaml:"kind"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	switch head.Kind {
	case "move_forward":
		var e struct {
			Tiles int `yaml:"tiles"`
		}
		if err := value.Decode(&e); err != nil {
			return err
		}
		if e.Tiles <= 0 {
			return fmt.Errorf("line %d: move_forward needs positive tiles", value.Line)
		}
		d.Effect = MoveForward{Tiles: e.Tiles}
	case "add_points":
		var e struct {
			Amount int `yaml:"amount"`
		}
		if err := value.Decode(&e); err != nil {
			return err
		}
		d.Effect = AddPoints{Amount: e.Amount}
	case "status":
		var e struct {
			Status string `yaml:"status"`
		}
		if err := value.Decode(&e); err != nil {
			return err
		}
		s, ok := ParseStatus(e.Status)
		if !ok || s == StatusNormal || s == Stunned {
			return fmt.Errorf("line %d: status effect cannot grant %q", value.Line, e.Status)
		}
		d.Effect = ApplyStatus{Status: s}
	case "stun":
		d.Effect = Stun{}
	case "bomb":
		var e struct {
			Pushback      int `yaml:"pushback"`
			OwnerDiscount int `yaml:"owner_discount"`
		}
		if err := value.Decode(&e); err != nil {
			return err
		}
		if e.Pushback <= 0 || e.OwnerDiscount < 0 || e.OwnerDiscount > e.Pushback {
			return fmt.Errorf("line %d: invalid bomb pushback %d/%d", value.Line, e.Pushback, e.OwnerDiscount)
		}
		d.Effect = PlaceBomb{Pushback: e.Pushback, OwnerDiscount: e.OwnerDiscount}
	case "snake_guard":
		d.Effect = SnakeGuard{}
	default:
		return fmt.Errorf("line %d: unknown effect kind %q", value.Line, head.Kind)
	}
	return nil
}

// ParseBoard builds a board from its YAML description.
func ParseBoard(data []byte) (*Board, error) {
	var doc boardDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse board: %w", err)
	}
	if doc.Size < 2 {
		return nil, fmt.Errorf("board size %d too small", doc.Size)
	}

	graph := NewTileGraph(doc.Size)
	for from, to := range doc.Ladders {
		if to <= from {
			return nil, fmt.Errorf("ladder %d->%d does not go forward", from, to)
		}
		if err := graph.AddRedirect(from, to); err != nil {
			return nil, err
		}
	}
	for from, to := range doc.Snakes {
		if to >= from {
			return nil, fmt.Errorf("snake %d->%d does not go backward", from, to)
		}
		if err := graph.AddRedirect(from, to); err != nil {
			return nil, err
		}
	}

	items := make([]Item, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, Item{Name: it.Name, Cost: it.Cost, Effect: it.Effect.Effect})
	}
	catalog, err := NewCatalog(items...)
	if err != nil {
		return nil, err
	}

	return &Board{Graph: graph, Catalog: catalog}, nil
}

// LoadBoard reads a board file, or the built-in board when path is empty.
func LoadBoard(path string) (*Board, error) {
	if path == "" {
		return ParseBoard(defaultBoard)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}
	return ParseBoard(data)
}

// DefaultBoard returns the built-in board.
func DefaultBoard() *Board {
	b, err := ParseBoard(defaultBoard)
	if err != nil {
		panic(fmt.Sprintf("built-in board is invalid: %v", err))
	}
	return b
}
