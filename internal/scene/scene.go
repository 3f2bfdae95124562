// Package scene loads YAML node trees into a lineage storage and replays
// scripted structural edits against them.
package scene

import (
	"fmt"
	"os"

	"github.com/TheBitDrifter/lineage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Label names a scene node. Path is the slash-joined chain of names from the
// node's root at load time.
type Label struct {
	Name string
	Path string
	ID   uuid.UUID
}

var LabelComponent = lineage.FactoryNewComponent[Label]()

type Node struct {
	Name     string `yaml:"name"`
	ID       string `yaml:"id"` // generated when empty
	Children []Node `yaml:"children"`
}

type File struct {
	Nodes  []Node `yaml:"nodes"`
	Script []Edit `yaml:"script"`
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &f, nil
}

// Load reads a scene file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	return Parse(raw)
}

// Scene is a loaded node tree. Nodes are addressed by path or by id.
type Scene struct {
	sto   lineage.Storage
	refs  lineage.Cache[lineage.Entity]
	names map[lineage.Entity]string
	log   *zap.Logger
}

// Build spawns every node of f into sto, children through the storage's
// child builder so each subtree is wired in file order. maxNodes bounds the
// number of nodes the scene can address.
func Build(sto lineage.Storage, f *File, maxNodes int, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sc := &Scene{
		sto:   sto,
		refs:  lineage.FactoryNewCache[lineage.Entity](2 * maxNodes),
		names: make(map[lineage.Entity]string),
		log:   log,
	}
	for _, node := range f.Nodes {
		entities, err := sto.NewEntities(1, LabelComponent)
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", node.Name, err)
		}
		root := entities[0]
		if err := sc.label(root, "", node); err != nil {
			return nil, err
		}
		if len(node.Children) == 0 {
			continue
		}
		err = sto.WithChildren(root, func(cb *lineage.ChildBuilder) error {
			return sc.spawnChildren(cb, node.Name, node.Children)
		})
		if err != nil {
			return nil, err
		}
	}
	log.Debug("scene built", zap.Int("nodes", len(sc.names)), zap.Int("roots", len(f.Nodes)))
	return sc, nil
}

func (sc *Scene) spawnChildren(cb *lineage.ChildBuilder, parentPath string, nodes []Node) error {
	for _, node := range nodes {
		h, err := cb.Spawn(LabelComponent)
		if err != nil {
			return fmt.Errorf("spawn %s/%s: %w", parentPath, node.Name, err)
		}
		if err := sc.label(h.ID(), parentPath, node); err != nil {
			return err
		}
		if len(node.Children) == 0 {
			continue
		}
		path := parentPath + "/" + node.Name
		err = h.WithChildren(func(nested *lineage.ChildBuilder) error {
			return sc.spawnChildren(nested, path, node.Children)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// label stores node's Label on e and makes e addressable.
func (sc *Scene) label(e lineage.Entity, parentPath string, node Node) error {
	l, err := newLabel(parentPath, node)
	if err != nil {
		return err
	}
	if err := sc.register(e, l.Path, l.ID); err != nil {
		return err
	}
	return lineage.InsertComponent(sc.sto, e, LabelComponent, l)
}

func newLabel(parentPath string, node Node) (Label, error) {
	if node.Name == "" {
		return Label{}, fmt.Errorf("node under %q has no name", parentPath)
	}
	path := node.Name
	if parentPath != "" {
		path = parentPath + "/" + node.Name
	}

	id := uuid.New()
	if node.ID != "" {
		parsed, err := uuid.Parse(node.ID)
		if err != nil {
			return Label{}, fmt.Errorf("node %s: bad id %q: %w", path, node.ID, err)
		}
		id = parsed
	}
	return Label{Name: node.Name, Path: path, ID: id}, nil
}

func (sc *Scene) register(e lineage.Entity, path string, id uuid.UUID) error {
	for _, key := range []string{path, id.String()} {
		if _, taken := sc.refs.GetIndex(key); taken {
			return fmt.Errorf("duplicate scene reference %q", key)
		}
		if _, err := sc.refs.Register(key, e); err != nil {
			return fmt.Errorf("register %s: %w", key, err)
		}
	}
	sc.names[e] = path
	return nil
}

// Storage returns the storage the scene was built into.
func (sc *Scene) Storage() lineage.Storage {
	return sc.sto
}

// Resolve returns the live entity addressed by ref, a node path or id.
func (sc *Scene) Resolve(ref string) (lineage.Entity, error) {
	e, err := sc.lookup(ref)
	if err != nil {
		return 0, err
	}
	if !sc.sto.Alive(e) {
		return 0, fmt.Errorf("scene reference %q: %w", ref, lineage.EntityNotFoundError{Entity: e})
	}
	return e, nil
}

// lookup resolves ref without checking liveness, so reserved entities of a
// pending script resolve too.
func (sc *Scene) lookup(ref string) (lineage.Entity, error) {
	e, ok := sc.refs.Lookup(ref)
	if !ok {
		return 0, fmt.Errorf("unknown scene reference %q", ref)
	}
	return *e, nil
}

// Name returns the path e was registered under, falling back to the raw id
// for entities the scene does not know.
func (sc *Scene) Name(e lineage.Entity) string {
	if name, ok := sc.names[e]; ok {
		return name
	}
	return e.String()
}
