package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Air is always palette id 0.
const Air uint16 = 0

//go:embed blocks.schema.json
var blocksSchema string

//go:embed default_blocks.json
var defaultBlocks []byte

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string

	opacity  []uint8
	emission []uint8
}

type BlockDef struct {
	ID       string `json:"id"`
	Solid    bool   `json:"solid"`
	Opacity  uint8  `json:"opacity"`
	Emission uint8  `json:"emission,omitempty"`
}

// Load reads configDir/blocks.json.
func Load(configDir string) (*BlockCatalog, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, "blocks.json"))
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Default returns the built-in block set.
func Default() *BlockCatalog {
	c, err := Parse(defaultBlocks)
	if err != nil {
		panic(fmt.Sprintf("catalogs: default blocks: %v", err))
	}
	return c
}

func Parse(raw []byte) (*BlockCatalog, error) {
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	out := &BlockCatalog{DefsDigest: sha256Hex(raw), Defs: map[string]BlockDef{}}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return nil, fmt.Errorf("blocks.json: duplicate id %q", d.ID)
		}
		out.Defs[d.ID] = d
	}

	// Ensure AIR exists and is palette id 0.
	air, ok := out.Defs["AIR"]
	if !ok {
		return nil, fmt.Errorf("blocks.json: missing AIR")
	}
	if air.Opacity != 0 || air.Emission != 0 {
		return nil, fmt.Errorf("blocks.json: AIR must be transparent and dark")
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id != "AIR" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ids = append([]string{"AIR"}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	out.opacity = make([]uint8, len(ids))
	out.emission = make([]uint8, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
		out.opacity[i] = out.Defs[id].Opacity
		out.emission[i] = out.Defs[id].Emission
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return out, nil
}

func validate(raw []byte) error {
	schema, err := jsonschema.CompileString("blocks.schema.json", blocksSchema)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return schema.Validate(v)
}

// Opacity reports how much light a block absorbs. Unknown ids are opaque.
func (c *BlockCatalog) Opacity(b uint16) uint8 {
	if int(b) >= len(c.opacity) {
		return 15
	}
	return c.opacity[b]
}

func (c *BlockCatalog) Emission(b uint16) uint8 {
	if int(b) >= len(c.emission) {
		return 0
	}
	return c.emission[b]
}

func (c *BlockCatalog) ID(name string) (uint16, bool) {
	id, ok := c.Index[name]
	return id, ok
}

func (c *BlockCatalog) MustID(name string) uint16 {
	id, ok := c.Index[name]
	if !ok {
		panic(fmt.Sprintf("catalogs: unknown block %q", name))
	}
	return id
}

func (c *BlockCatalog) Name(b uint16) string {
	if int(b) >= len(c.Palette) {
		return ""
	}
	return c.Palette[b]
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
