package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tidwall/gjson"

	"spritesync/internal/snapshot"
)

// directionKeys maps the direction names used in descriptor files.
// "*" applies a sequence to every direction.
var directionKeys = map[string][]snapshot.Direction{
	"down":  {snapshot.DirDown},
	"left":  {snapshot.DirLeft},
	"right": {snapshot.DirRight},
	"up":    {snapshot.DirUp},
	"*":     {snapshot.DirDown, snapshot.DirLeft, snapshot.DirRight, snapshot.DirUp},
}

// LoadDescriptor reads a JSON descriptor file. The graphic name defaults to
// the file name without its extension.
//
//	{
//	  "spriteWidth": 32, "spriteHeight": 32, "anchor": [0.5, 1],
//	  "clips": {
//	    "walk": {"loop": true, "frameTicks": 6,
//	             "frames": {"down": [{"col": 0, "row": 0, "glyph": "@"}]}}
//	  }
//	}
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d, err := ParseDescriptor(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ParseDescriptor parses descriptor JSON for the named graphic.
func ParseDescriptor(name string, data []byte) (*Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidDescriptor)
	}
	root := gjson.ParseBytes(data)
	if n := root.Get("name").String(); n != "" {
		name = n
	}

	d := &Descriptor{
		Name:         name,
		SpriteWidth:  root.Get("spriteWidth").Float(),
		SpriteHeight: root.Get("spriteHeight").Float(),
		Clips:        make(map[string]*Clip),
		Hooks:        make(map[string]Hook),
	}
	if d.SpriteWidth <= 0 || d.SpriteHeight <= 0 {
		return nil, fmt.Errorf("%w: sprite size %vx%v", ErrInvalidDescriptor, d.SpriteWidth, d.SpriteHeight)
	}

	anchor, err := parseAnchor(root.Get("anchor"))
	if err != nil {
		return nil, err
	}
	d.Anchor = anchor

	var clipErr error
	root.Get("clips").ForEach(func(key, value gjson.Result) bool {
		clip, err := parseClip(key.String(), value)
		if err != nil {
			clipErr = err
			return false
		}
		d.Clips[clip.Name] = clip
		return true
	})
	if clipErr != nil {
		return nil, clipErr
	}
	return d, nil
}

func parseClip(name string, v gjson.Result) (*Clip, error) {
	c := &Clip{
		Name:       name,
		Loop:       v.Get("loop").Bool(),
		FrameTicks: int(v.Get("frameTicks").Int()),
		Frames:     make(map[snapshot.Direction][]Frame),
	}
	if c.FrameTicks <= 0 {
		c.FrameTicks = 1
	}

	var err error
	v.Get("frames").ForEach(func(key, seq gjson.Result) bool {
		dirs, ok := directionKeys[key.String()]
		if !ok {
			err = fmt.Errorf("%w: clip %q: unknown direction %q", ErrInvalidDescriptor, name, key.String())
			return false
		}
		var frames []Frame
		seq.ForEach(func(_, fv gjson.Result) bool {
			var f Frame
			f, err = parseFrame(fv)
			if err != nil {
				err = fmt.Errorf("clip %q: %w", name, err)
				return false
			}
			frames = append(frames, f)
			return true
		})
		if err != nil {
			return false
		}
		for _, d := range dirs {
			c.Frames[d] = frames
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parseFrame(v gjson.Result) (Frame, error) {
	f := Frame{
		Col:   int(v.Get("col").Int()),
		Row:   int(v.Get("row").Int()),
		Glyph: '?',
	}
	if g := v.Get("glyph").String(); g != "" {
		f.Glyph, _ = utf8.DecodeRuneInString(g)
	}
	anchor, err := parseAnchor(v.Get("anchor"))
	if err != nil {
		return Frame{}, err
	}
	f.Anchor = anchor
	return f, nil
}

func parseAnchor(v gjson.Result) (*mgl64.Vec2, error) {
	if !v.Exists() {
		return nil, nil
	}
	arr := v.Array()
	if len(arr) != 2 {
		return nil, fmt.Errorf("%w: anchor must be [x, y]", ErrInvalidDescriptor)
	}
	a := mgl64.Vec2{arr[0].Float(), arr[1].Float()}
	return &a, nil
}
